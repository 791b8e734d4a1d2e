package controller

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ballot/cli/node"
	"go.dedis.ch/ballot/contracts/voting"
	"go.dedis.ch/ballot/core/execution/native"
)

func TestMiniController_SetCommands(t *testing.T) {
	ctrl := NewController()

	builder := node.NewBuilderWithCfg(make(chan os.Signal), io.Discard)
	ctrl.SetCommands(builder)
}

func TestMiniController_OnStart(t *testing.T) {
	ctrl := NewController()
	inj := node.NewInjector()

	err := ctrl.OnStart(node.FlagSet{}, inj)
	require.EqualError(t, err,
		"failed to resolve native service: couldn't find dependency for '*native.Service'")

	exec := native.NewExecution()
	inj.Inject(exec)

	err = ctrl.OnStart(node.FlagSet{}, inj)
	require.NoError(t, err)

	var contract *voting.Contract
	require.NoError(t, inj.Resolve(&contract))

	// The contract is registered only once per execution service.
	require.Panics(t, func() {
		voting.RegisterContract(exec, contract)
	})
}

func TestMiniController_OnStop(t *testing.T) {
	require.NoError(t, NewController().OnStop(nil))
}
