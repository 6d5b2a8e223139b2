package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/merkle-proof-go/pkg/config"
	"github.com/Layr-Labs/merkle-proof-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-proof-go/pkg/persistence"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "merkle-host",
		Usage: "Run the merkle program and inspect its committed outputs",
		Description: `Host driver for the merkle inclusion-proof program.

This tool can:
- Execute the program for a leaf count and verification index and print its public values
- Write a self-describing JSON inclusion proof for one leaf
- Verify a JSON inclusion proof against a root
- List and inspect previously persisted runs`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "hasher",
				Usage:   fmt.Sprintf("Digest used for leaves and internal nodes: %s", config.GetSupportedHashersString()),
				Value:   merkle.DefaultHasher,
				EnvVars: []string{config.EnvMerkleHasher},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvMerkleVerbose},
			},
			&cli.StringFlag{
				Name:    "persistence",
				Usage:   "Run store backend: badger, redis or memory (memory runs are gone when the process exits)",
				Value:   string(persistence.TypeBadger),
				EnvVars: []string{config.EnvMerklePersistence},
			},
			&cli.StringFlag{
				Name:    "data-path",
				Usage:   "Badger data directory",
				Value:   config.DefaultDataPath,
				EnvVars: []string{config.EnvMerkleDataPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address (host:port)",
				Value:   config.DefaultRedisAddress,
				EnvVars: []string{config.EnvMerkleRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvMerkleRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				EnvVars: []string{config.EnvMerkleRedisDB},
			},
			&cli.StringFlag{
				Name:    "redis-key-prefix",
				Usage:   "Prefix for every Redis key",
				EnvVars: []string{config.EnvMerkleRedisKeyPrefix},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "execute",
				Usage:  "Execute the program and print its public values",
				Flags:  programFlags(),
				Action: executeCommand,
			},
			{
				Name:  "prove",
				Usage: "Execute the program and write the inclusion proof for the verification index",
				Flags: append(programFlags(),
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output file for the JSON proof (stdout if empty)",
					},
				),
				Action: proveCommand,
			},
			{
				Name:  "verify",
				Usage: "Verify a JSON inclusion proof",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "proof",
						Usage:    "Path to a JSON proof written by 'prove'",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "root",
						Usage: "Expected root (hex); defaults to the root recorded in the proof",
					},
				},
				Action: verifyCommand,
			},
			{
				Name:  "runs",
				Usage: "Inspect persisted runs",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List runs, oldest first",
						Action: listRunsCommand,
					},
					{
						Name:      "show",
						Usage:     "Show one run (latest if no ID is given)",
						ArgsUsage: "[run-id]",
						Action:    showRunCommand,
					},
				},
			},
			{
				Name:   "program-id",
				Usage:  "Print the program identifier for the selected hasher",
				Action: programIDCommand,
			},
		},
	}
}

func programFlags() []cli.Flag {
	return []cli.Flag{
		&cli.UintFlag{
			Name:    "leaf-count",
			Usage:   "Number of leaves in the tree",
			Value:   config.DefaultLeafCount,
			EnvVars: []string{config.EnvMerkleLeafCount},
		},
		&cli.UintFlag{
			Name:    "verification-index",
			Usage:   "Index of the leaf to prove and verify",
			Value:   config.DefaultVerificationIndex,
			EnvVars: []string{config.EnvMerkleVerificationIndex},
		},
		&cli.IntFlag{
			Name:    "workers",
			Usage:   "Goroutines used to hash one tree level (0 or 1 = sequential)",
			EnvVars: []string{config.EnvMerkleWorkers},
		},
	}
}
