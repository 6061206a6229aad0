package winservice

import "github.com/xelnet/xeld/infrastructure/config"

// ServiceDescription contains information about a service, needed to administer it
type ServiceDescription struct {
	Name        string
	DisplayName string
	Description string
}

// XeldDescription describes the xeld node service
var XeldDescription = &ServiceDescription{
	Name:        "xeldsvc",
	DisplayName: "Xeld Service",
	Description: "Maintains the proof-of-stake block chain and forges blocks for the configured accounts.",
}

// MainFunc specifies the signature of an application's main function to be able to run as a windows service
type MainFunc func(startedChan chan<- struct{}) error

// WinServiceMain is only invoked on Windows. It detects when xeld is running
// as a service and reacts accordingly.
var WinServiceMain = func(MainFunc, *ServiceDescription, *config.Config) (bool, error) { return false, nil }
