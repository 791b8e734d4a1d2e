// Package native runs the contracts compiled with the node.
package native

import (
	"sort"
	"sync"

	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/core/execution"
	"go.dedis.ch/ballot/core/store"
	"golang.org/x/xerrors"
)

// ContractArg is the key of the transaction argument that names the contract
// to execute.
const ContractArg = "ballot.contract"

// Contract is a command handler with direct access to the snapshot. An error
// refuses the transaction.
type Contract interface {
	Execute(store.Snapshot, execution.Step) error
}

// Service dispatches the transactions to the registered contracts.
//
// - implements execution.Service
type Service struct {
	sync.RWMutex
	contracts map[string]Contract
}

// NewExecution returns a service without contracts.
func NewExecution() *Service {
	return &Service{
		contracts: make(map[string]Contract),
	}
}

// Set registers the contract under the name. It panics when the name is
// empty or already taken.
func (s *Service) Set(name string, contract Contract) {
	s.Lock()
	defer s.Unlock()

	if name == "" {
		panic(xerrors.New("contract name is empty"))
	}

	_, found := s.contracts[name]
	if found {
		panic(xerrors.Errorf("contract '%s' already registered", name))
	}

	s.contracts[name] = contract
}

// Names returns the sorted names of the contracts.
func (s *Service) Names() []string {
	s.RLock()
	defer s.RUnlock()

	names := make([]string, 0, len(s.contracts))
	for name := range s.contracts {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Execute implements execution.Service. A transaction for an unknown contract
// is an error, while an error or a panic of the contract is a refusal.
func (s *Service) Execute(snap store.Snapshot, step execution.Step) (execution.Result, error) {
	name := string(step.Current.GetArg(ContractArg))

	s.RLock()
	contract, found := s.contracts[name]
	s.RUnlock()

	if !found {
		return execution.Result{}, xerrors.Errorf("unknown contract '%s'", name)
	}

	err := run(contract, snap, step)
	if err != nil {
		ballot.Logger.Debug().Str("contract", name).Err(err).Msg("transaction refused")

		return execution.Result{Message: err.Error()}, nil
	}

	return execution.Result{Accepted: true}, nil
}

func run(contract Contract, snap store.Snapshot, step execution.Step) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = xerrors.Errorf("contract panicked: %v", r)
		}
	}()

	return contract.Execute(snap, step)
}
