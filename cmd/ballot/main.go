// Package main implements a ballot node with a local database.
//
// Unix example:
//
//	# Create the keys of the chairperson and a voter.
//	ballot keygen --save chair.key
//	ballot keygen --save alice.key
//
//	# Start the daemon, optionally with the metrics endpoint.
//	LLVL=info ballot --config /tmp/ballot start --promaddr 127.0.0.1:9100 &
//
//	ballot --config /tmp/ballot voting create --key $PWD/chair.key \
//		--id spells --proposals Fireball --proposals Invisibility
//	ballot --config /tmp/ballot voting authorize --key $PWD/chair.key \
//		--id spells --voter <public key of alice>
//	ballot --config /tmp/ballot voting vote --key $PWD/alice.key --id spells --index 1
//	ballot --config /tmp/ballot voting winner --id spells
//
// The environment variables can also be set in a .env file of the working
// directory.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"go.dedis.ch/ballot/cli/node"
	voting "go.dedis.ch/ballot/contracts/voting/controller"
	serial "go.dedis.ch/ballot/core/ordering/serial/controller"
	db "go.dedis.ch/ballot/core/store/kv/controller"
	signed "go.dedis.ch/ballot/core/txn/signed/controller"
	metrics "go.dedis.ch/ballot/metrics/controller"
)

func main() {
	err := run(os.Args, os.Stderr)
	if err != nil {
		os.Exit(1)
	}
}

func run(args []string, errOut io.Writer) error {
	// A missing file is not an error.
	_ = godotenv.Load()

	builder := node.NewBuilder(
		db.NewController(),
		serial.NewController(),
		signed.NewManagerController(),
		voting.NewController(),
		metrics.NewController(),
	)

	app := builder.Build()

	err := app.Run(args)
	if err != nil {
		fmt.Fprintf(errOut, "%+v\n", err)
		return err
	}

	return nil
}
