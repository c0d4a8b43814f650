// Command chaincode runs the eVAULT record contract.
//
// By default the process is launched by the peer. When CHAINCODE_SERVER_ADDRESS
// and CHAINCODE_ID are set it runs as a chaincode-as-a-service endpoint
// instead, which is how the contract is deployed to Kubernetes-based networks.
package main

import (
	"log"
	"os"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/sufield/evault/internal/chaincode"
)

func main() {
	cc, err := contractapi.NewChaincode(chaincode.New("records"))
	if err != nil {
		log.Panicf("Error creating record chaincode: %v", err)
	}

	addr := os.Getenv("CHAINCODE_SERVER_ADDRESS")
	ccid := os.Getenv("CHAINCODE_ID")
	if addr == "" || ccid == "" {
		if err := cc.Start(); err != nil {
			log.Panicf("Error starting record chaincode: %v", err)
		}
		return
	}

	server := &shim.ChaincodeServer{
		CCID:     ccid,
		Address:  addr,
		CC:       cc,
		TLSProps: shim.TLSProperties{Disabled: true},
	}
	log.Printf("record chaincode listening on %s (%s)", addr, ccid)
	if err := server.Start(); err != nil {
		log.Panicf("Error starting record chaincode service: %v", err)
	}
}
