package main

import (
	"provenance/config"
	"provenance/contract"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("provenance.main")

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Error loading configuration: " + err.Error())
	}
	flogging.Init(flogging.Config{Format: cfg.LogFormat, LogSpec: cfg.LogSpec})

	cc, err := contractapi.NewChaincode(contract.NewProvenanceContract())
	if err != nil {
		panic("Error creating ProvenanceContract chaincode: " + err.Error())
	}
	cc.Info.Title = "provenance"
	cc.Info.Version = cfg.ContractVersion

	if !cfg.AsService() {
		if err := cc.Start(); err != nil {
			panic("Error starting chaincode: " + err.Error())
		}
		return
	}

	tlsProps, err := cfg.TLSProperties()
	if err != nil {
		panic("Error loading chaincode TLS material: " + err.Error())
	}
	server := &shim.ChaincodeServer{
		CCID:     cfg.ChaincodeID,
		Address:  cfg.ServerAddress,
		CC:       cc,
		TLSProps: tlsProps,
	}
	logger.Infof("Starting chaincode server %s on %s", cfg.ChaincodeID, cfg.ServerAddress)
	if err := server.Start(); err != nil {
		panic("Error starting chaincode server: " + err.Error())
	}
}
