// Package chaincode exposes the record store as a Hyperledger Fabric smart
// contract.
//
// Every transaction delegates to recordstore.Store over the transaction
// stub, so the on-ledger rules are the ones the in-process backends use.
// Transaction names are the recordstore.Fn* constants.
package chaincode

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/sufield/evault/internal/domain"
	"github.com/sufield/evault/internal/recordstore"
)

// RecordContract implements the record operations as chaincode transactions.
type RecordContract struct {
	contractapi.Contract
}

// New returns a RecordContract registered under name.
func New(name string) *RecordContract {
	c := new(RecordContract)
	c.Name = name
	c.Info.Title = "eVAULT record contract"
	c.Info.Version = "1.0.0"
	return c
}

// RecordExists returns true when a record is stored under id.
func (c *RecordContract) RecordExists(ctx contractapi.TransactionContextInterface, id string) (bool, error) {
	return store(ctx).Exists(id)
}

// CreateRecord stores value under a new id.
func (c *RecordContract) CreateRecord(ctx contractapi.TransactionContextInterface, id string, value string) error {
	return store(ctx).Create(id, value)
}

// ReadRecord returns the record stored under id.
func (c *RecordContract) ReadRecord(ctx contractapi.TransactionContextInterface, id string) (*domain.Record, error) {
	return store(ctx).Read(id)
}

// UpdateRecord overwrites the value stored under id.
func (c *RecordContract) UpdateRecord(ctx contractapi.TransactionContextInterface, id string, value string) error {
	return store(ctx).Update(id, value)
}

// DeleteRecord removes the record stored under id.
func (c *RecordContract) DeleteRecord(ctx contractapi.TransactionContextInterface, id string) error {
	return store(ctx).Delete(id)
}

// CountRecords returns the number of records on the channel.
func (c *RecordContract) CountRecords(ctx contractapi.TransactionContextInterface) (int, error) {
	return store(ctx).Count()
}

func store(ctx contractapi.TransactionContextInterface) *recordstore.Store {
	return recordstore.New(stubState{ctx.GetStub()})
}

// stubState adapts the chaincode stub to recordstore.State and adds
// counting through a full range scan.
type stubState struct {
	shim.ChaincodeStubInterface
}

func (s stubState) CountState() (int, error) {
	iter, err := s.GetStateByRange("", "")
	if err != nil {
		return 0, fmt.Errorf("failed to open range query: %w", err)
	}
	defer iter.Close()

	n := 0
	for iter.HasNext() {
		if _, err := iter.Next(); err != nil {
			return 0, fmt.Errorf("failed to advance range query: %w", err)
		}
		n++
	}
	return n, nil
}
