package rpc

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xelnet/xeld/domain/consensus/model/externalapi"
	"github.com/xelnet/xeld/domain/consensus/ruleerrors"
)

const maxBlockIDsLimit = 1440

func (m *Manager) setupRoutes() {
	m.engine.GET("/status", m.handleGetStatus)
	m.engine.GET("/blocks/height/:height", m.handleGetBlockAtHeight)
	m.engine.GET("/blocks/id/:id", m.handleGetBlockByID)
	m.engine.GET("/blocks/after/:height", m.handleGetBlockIDsAfter)
	m.engine.GET("/accounts/:id", m.handleGetAccount)

	forgers := m.engine.Group("/forgers")
	{
		forgers.GET("", m.handleGetForgers)
		forgers.GET("/next", m.handleGetNextForgers)
		forgers.GET("/:id", m.handleGetForger)
		forgers.DELETE("/:id", m.handleStopForging)
		forgers.DELETE("", m.handleStopAllForging)
	}

	chain := m.engine.Group("/chain")
	{
		chain.POST("/popoff/:height", m.handlePopOff)
		chain.POST("/scan/:height", m.handleScan)
		chain.POST("/fullreset", m.handleFullReset)
	}

	m.engine.GET("/metrics", gin.WrapH(m.collector.Handler()))
}

type softForksResponse struct {
	Height    int32  `json:"height"`
	Live      uint64 `json:"live"`
	Potential uint64 `json:"potential"`
	Voted     uint64 `json:"voted"`
}

type statusResponse struct {
	Height          int32             `json:"height"`
	LastBlockID     string            `json:"lastBlockId"`
	LastTimestamp   int32             `json:"lastBlockTimestamp"`
	ChainCommitment string            `json:"chainCommitment"`
	SoftForks       softForksResponse `json:"softForks"`
	Forgers         int               `json:"forgers"`
	Mempool         int               `json:"mempoolTransactions"`
}

type blockResponse struct {
	ID                   string `json:"id"`
	Height               int32  `json:"height"`
	Timestamp            int32  `json:"timestamp"`
	PreviousBlockID      string `json:"previousBlockId"`
	NextBlockID          string `json:"nextBlockId,omitempty"`
	GeneratorID          string `json:"generator"`
	BaseTarget           int64  `json:"baseTarget"`
	CumulativeDifficulty string `json:"cumulativeDifficulty"`
	MinPowTarget         string `json:"minPowTarget"`
	TotalAmountNQT       int64  `json:"totalAmountNQT"`
	TotalFeeNQT          int64  `json:"totalFeeNQT"`
	Transactions         int    `json:"numberOfTransactions"`
	SoftforkVotes        uint64 `json:"softforkVotes"`
}

type forgerResponse struct {
	AccountID           string `json:"account"`
	EffectiveBalanceNXT int64  `json:"effectiveBalanceNXT"`
	HitTime             int64  `json:"hitTime"`
	Deadline            int64  `json:"deadline"`
}

type accountResponse struct {
	AccountID             string `json:"account"`
	Height                int32  `json:"height"`
	BalanceNQT            int64  `json:"balanceNQT"`
	UnconfirmedBalanceNQT int64  `json:"unconfirmedBalanceNQT"`
	ForgedBalanceNQT      int64  `json:"forgedBalanceNQT"`
	EffectiveBalanceNXT   int64  `json:"effectiveBalanceNXT"`
	HasPublicKey          bool   `json:"hasPublicKey"`
}

func newBlockResponse(block externalapi.DomainBlock) *blockResponse {
	response := &blockResponse{
		ID:                   block.ID().String(),
		Height:               block.Height(),
		Timestamp:            block.Timestamp(),
		PreviousBlockID:      block.PreviousBlockID().String(),
		GeneratorID:          block.GeneratorID().String(),
		BaseTarget:           block.BaseTarget(),
		CumulativeDifficulty: block.CumulativeDifficulty().String(),
		MinPowTarget:         block.MinPowTarget().Text(16),
		TotalAmountNQT:       block.TotalAmountNQT(),
		TotalFeeNQT:          block.TotalFeeNQT(),
		Transactions:         block.TransactionCount(),
		SoftforkVotes:        block.SoftforkVotes(),
	}
	if block.NextBlockID() != 0 {
		response.NextBlockID = block.NextBlockID().String()
	}
	return response
}

func newForgerResponse(info *externalapi.GeneratorInfo) *forgerResponse {
	return &forgerResponse{
		AccountID:           info.AccountID.String(),
		EffectiveBalanceNXT: info.EffectiveBalanceNXT,
		HitTime:             info.HitTime,
		Deadline:            info.Deadline,
	}
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if ruleerrors.IsRuleError(err) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseHeightParam(c *gin.Context) (int32, bool) {
	height, err := strconv.ParseInt(c.Param("height"), 10, 32)
	if err != nil || height < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid height"})
		return 0, false
	}
	return int32(height), true
}

func parseAccountParam(c *gin.Context) (externalapi.AccountID, bool) {
	accountID, err := externalapi.ParseAccountID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return accountID, true
}

// GET /status
func (m *Manager) handleGetStatus(c *gin.Context) {
	chain := m.domain.Consensus()
	softForks, err := chain.SoftForks()
	if err != nil {
		respondError(c, err)
		return
	}
	lastBlock := chain.LastBlock()
	c.JSON(http.StatusOK, &statusResponse{
		Height:          lastBlock.Height(),
		LastBlockID:     lastBlock.ID().String(),
		LastTimestamp:   lastBlock.Timestamp(),
		ChainCommitment: chain.ChainCommitment().String(),
		SoftForks: softForksResponse{
			Height:    softForks.Height,
			Live:      softForks.Live,
			Potential: softForks.Potential,
			Voted:     softForks.Voted,
		},
		Forgers: len(chain.Generators()),
		Mempool: m.domain.Mempool().Count(),
	})
}

// GET /blocks/height/:height
func (m *Manager) handleGetBlockAtHeight(c *gin.Context) {
	height, ok := parseHeightParam(c)
	if !ok {
		return
	}
	chain := m.domain.Consensus()
	if height > chain.Height() {
		c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
		return
	}
	block, err := chain.BlockAtHeight(height)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBlockResponse(block))
}

// GET /blocks/id/:id
func (m *Manager) handleGetBlockByID(c *gin.Context) {
	blockID, err := externalapi.ParseBlockID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chain := m.domain.Consensus()
	exists, err := chain.HasBlock(blockID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
		return
	}
	block, err := chain.BlockByID(blockID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBlockResponse(block))
}

// GET /blocks/after/:height?limit=n
func (m *Manager) handleGetBlockIDsAfter(c *gin.Context) {
	height, ok := parseHeightParam(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > maxBlockIDsLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	blockIDs, err := m.domain.Consensus().BlockIDsAfter(height, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	response := make([]string, len(blockIDs))
	for i, blockID := range blockIDs {
		response[i] = blockID.String()
	}
	c.JSON(http.StatusOK, gin.H{"blockIds": response})
}

// GET /accounts/:id
func (m *Manager) handleGetAccount(c *gin.Context) {
	accountID, ok := parseAccountParam(c)
	if !ok {
		return
	}
	account, exists, err := m.domain.Consensus().Account(accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown account"})
		return
	}
	c.JSON(http.StatusOK, &accountResponse{
		AccountID:             account.AccountID.String(),
		Height:                account.Height,
		BalanceNQT:            account.BalanceNQT,
		UnconfirmedBalanceNQT: account.UnconfirmedBalanceNQT,
		ForgedBalanceNQT:      account.ForgedBalanceNQT,
		EffectiveBalanceNXT:   account.EffectiveBalanceNXT,
		HasPublicKey:          account.HasPublicKey,
	})
}

// GET /forgers
func (m *Manager) handleGetForgers(c *gin.Context) {
	generators := m.domain.Consensus().Generators()
	response := make([]*forgerResponse, len(generators))
	for i, generator := range generators {
		response[i] = newForgerResponse(generator)
	}
	c.JSON(http.StatusOK, gin.H{"forgers": response})
}

// GET /forgers/next
func (m *Manager) handleGetNextForgers(c *gin.Context) {
	generators, err := m.domain.Consensus().NextGenerators()
	if err != nil {
		respondError(c, err)
		return
	}
	response := make([]*forgerResponse, len(generators))
	for i, generator := range generators {
		response[i] = &forgerResponse{
			AccountID:           generator.AccountID.String(),
			EffectiveBalanceNXT: generator.EffectiveBalanceNXT,
			HitTime:             generator.HitTime,
		}
	}
	c.JSON(http.StatusOK, gin.H{"forgers": response})
}

// GET /forgers/:id
func (m *Manager) handleGetForger(c *gin.Context) {
	accountID, ok := parseAccountParam(c)
	if !ok {
		return
	}
	generator, exists := m.domain.Consensus().Generator(accountID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "account is not forging"})
		return
	}
	c.JSON(http.StatusOK, newForgerResponse(generator))
}

// DELETE /forgers/:id
func (m *Manager) handleStopForging(c *gin.Context) {
	accountID, ok := parseAccountParam(c)
	if !ok {
		return
	}
	generator, stopped := m.domain.Consensus().StopForging(accountID)
	if !stopped {
		c.JSON(http.StatusNotFound, gin.H{"error": "account is not forging"})
		return
	}
	c.JSON(http.StatusOK, newForgerResponse(generator))
}

// DELETE /forgers
func (m *Manager) handleStopAllForging(c *gin.Context) {
	stopped := m.domain.Consensus().StopAllForging()
	c.JSON(http.StatusOK, gin.H{"stopped": stopped})
}

// POST /chain/popoff/:height
func (m *Manager) handlePopOff(c *gin.Context) {
	height, ok := parseHeightParam(c)
	if !ok {
		return
	}
	popped, err := m.domain.Consensus().PopOffToHeight(height)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Infof("Popped off %d blocks to height %d on request", len(popped), height)
	response := make([]string, len(popped))
	for i, block := range popped {
		response[i] = block.ID().String()
	}
	c.JSON(http.StatusOK, gin.H{"popped": response})
}

// POST /chain/scan/:height?validate=true
func (m *Manager) handleScan(c *gin.Context) {
	height, ok := parseHeightParam(c)
	if !ok {
		return
	}
	validate, err := strconv.ParseBool(c.DefaultQuery("validate", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid validate flag"})
		return
	}
	err = m.domain.Consensus().Scan(height, validate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"height": m.domain.Consensus().Height()})
}

// POST /chain/fullreset
func (m *Manager) handleFullReset(c *gin.Context) {
	err := m.domain.Consensus().FullReset()
	if err != nil {
		respondError(c, err)
		return
	}
	log.Warnf("Chain was reset to genesis on request")
	c.JSON(http.StatusOK, gin.H{"height": m.domain.Consensus().Height()})
}
