// Package controller implements a controller for the key/value database.
package controller

import (
	"encoding/hex"
	"fmt"
	"path/filepath"

	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/cli/node"
	"go.dedis.ch/ballot/core/store/kv"
	"golang.org/x/xerrors"
)

// DBName is the name of the database file in the configuration directory.
const DBName = "ballot.db"

const defaultBucket = "ballot:store"

// minimal is the controller that opens the database when the node starts and
// closes it when the node stops.
//
// - implements node.Initializer
type minimal struct{}

// NewController returns a new controller initializer.
func NewController() node.Initializer {
	return minimal{}
}

// SetCommands implements node.Initializer. It registers a command to inspect
// the keys of a bucket.
func (m minimal) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("db")
	cmd.SetDescription("Database inspection")

	sub := cmd.SetSubCommand("keys")
	sub.SetDescription("List the keys of a bucket in byte order")
	sub.SetFlags(
		cli.StringFlag{
			Name:  "bucket",
			Usage: "name of the bucket",
			Value: defaultBucket,
		},
		cli.StringFlag{
			Name:  "prefix",
			Usage: "only list the keys starting with the prefix",
		},
		cli.BoolFlag{
			Name:  "values",
			Usage: "print the values in hexadecimal",
		},
	)
	sub.SetAction(builder.MakeAction(keysAction{}))
}

// OnStart implements node.Initializer. It opens the database in the
// configuration directory and injects it.
func (m minimal) OnStart(flags cli.Flags, inj node.Injector) error {
	db, err := kv.New(filepath.Join(flags.String("config"), DBName))
	if err != nil {
		return xerrors.Errorf("db: %v", err)
	}

	inj.Inject(db)

	return nil
}

// OnStop implements node.Initializer. It closes the database.
func (m minimal) OnStop(inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	err = db.Close()
	if err != nil {
		return xerrors.Errorf("while closing db: %v", err)
	}

	return nil
}

// keysAction prints the keys of a bucket matching a prefix.
//
// - implements node.ActionTemplate
type keysAction struct{}

// Execute implements node.ActionTemplate.
func (keysAction) Execute(ctx node.Context) error {
	var db kv.DB
	err := ctx.Injector.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	name := ctx.Flags.String("bucket")
	prefix := []byte(ctx.Flags.String("prefix"))
	withValues := ctx.Flags.Bool("values")

	err = db.View(func(tx kv.ReadableTx) error {
		bucket := tx.GetBucket([]byte(name))
		if bucket == nil {
			return xerrors.Errorf("bucket '%s' not found", name)
		}

		return bucket.Scan(prefix, func(k, v []byte) error {
			if withValues {
				fmt.Fprintf(ctx.Out, "%s = %s\n", k, hex.EncodeToString(v))
			} else {
				fmt.Fprintf(ctx.Out, "%s\n", k)
			}

			return nil
		})
	})

	if err != nil {
		return xerrors.Errorf("failed to scan: %v", err)
	}

	return nil
}
