package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-proof-go/pkg/config"
	"github.com/Layr-Labs/merkle-proof-go/pkg/logger"
	"github.com/Layr-Labs/merkle-proof-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-proof-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-proof-go/pkg/program"
	"github.com/Layr-Labs/merkle-proof-go/pkg/types"
	"github.com/Layr-Labs/merkle-proof-go/pkg/util"
)

func persistenceConfigFromContext(c *cli.Context) *config.PersistenceConfig {
	return &config.PersistenceConfig{
		Type:           persistence.Type(c.String("persistence")),
		DataPath:       c.String("data-path"),
		RedisAddress:   c.String("redis-address"),
		RedisPassword:  c.String("redis-password"),
		RedisDB:        c.Int("redis-db"),
		RedisKeyPrefix: c.String("redis-key-prefix"),
	}
}

// hostConfigFromContext reads program flags from the command and global flags from the app.
func hostConfigFromContext(c *cli.Context) (*config.HostConfig, error) {
	leafCount := c.Uint("leaf-count")
	index := c.Uint("verification-index")
	if uint64(leafCount) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("leaf-count %d does not fit in 32 bits", leafCount)
	}
	if uint64(index) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("verification-index %d does not fit in 32 bits", index)
	}

	cfg := &config.HostConfig{
		LeafCount:         uint32(leafCount),
		VerificationIndex: uint32(index),
		Hasher:            c.String("hasher"),
		Workers:           c.Int("workers"),
		Persistence:       *persistenceConfigFromContext(c),
		Verbose:           c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newCommandLogger(c *cli.Context) (*zap.Logger, error) {
	return logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
}

// saveRun persists a run and marks it as the latest.
func saveRun(store persistence.IRunPersistence, run *types.RunRecord) error {
	if err := store.SaveRun(run); err != nil {
		return errors.Wrap(err, "failed to save run")
	}
	if err := store.SetLatestRunID(run.ID); err != nil {
		return errors.Wrap(err, "failed to record latest run")
	}
	return nil
}

func executeCommand(c *cli.Context) error {
	cfg, err := hostConfigFromContext(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	l, err := newCommandLogger(c)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	h, err := merkle.HasherForName(cfg.Hasher)
	if err != nil {
		return err
	}

	prog := program.NewProgram(&program.Config{Hasher: h, Workers: cfg.Workers}, l)
	res, err := prog.Run(types.ProgramInputs{LeafCount: cfg.LeafCount, VerificationIndex: cfg.VerificationIndex})
	if err != nil {
		return err
	}

	decoded, err := util.DecodePublicValues(res.Encoded)
	if err != nil {
		return fmt.Errorf("failed to decode committed values: %w", err)
	}
	if *decoded != *res.Values {
		return fmt.Errorf("committed values do not round-trip: got %+v, want %+v", decoded, res.Values)
	}

	id, err := prog.ID()
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "✅ Program executed successfully!\n")
	fmt.Fprintf(w, "   Program ID: %s\n", id.Hex())
	fmt.Fprintf(w, "   Hasher: %s\n", h.Name())
	fmt.Fprintf(w, "   Leaf count: %d\n", decoded.LeafCount)
	fmt.Fprintf(w, "   Verification index: %d\n", decoded.VerificationIndex)
	fmt.Fprintf(w, "   Merkle root: %s\n", decoded.Root.Hex())
	fmt.Fprintf(w, "   Verification result: %t\n", decoded.VerificationResult)
	fmt.Fprintf(w, "   Hash operations: %d (build %d, verify %d)\n",
		decoded.HashOperations, res.Report.BuildHashOperations, res.Report.VerifyHashOperations)
	fmt.Fprintf(w, "   Tree height: %d, proof length: %d\n", res.Report.TreeHeight, res.Report.ProofLength)
	fmt.Fprintf(w, "   Public values: %s\n", hexutil.Encode(res.Encoded))

	store, err := openRunStore(&cfg.Persistence, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := persistence.NewRunRecord(types.RunModeExecute, h.Name(), id.Hex(), res.Values, res.Encoded)
	if err != nil {
		return err
	}
	if err := saveRun(store, run); err != nil {
		return err
	}
	if cfg.Persistence.Type == persistence.TypeMemory {
		fmt.Fprintf(w, "   Run not kept: memory store is discarded on exit\n")
		return nil
	}
	fmt.Fprintf(w, "   Run ID: %s\n", run.ID)
	return nil
}

func proveCommand(c *cli.Context) error {
	cfg, err := hostConfigFromContext(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	l, err := newCommandLogger(c)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	h, err := merkle.HasherForName(cfg.Hasher)
	if err != nil {
		return err
	}

	prog := program.NewProgram(&program.Config{Hasher: h, Workers: cfg.Workers}, l)
	res, err := prog.Run(types.ProgramInputs{LeafCount: cfg.LeafCount, VerificationIndex: cfg.VerificationIndex})
	if err != nil {
		return err
	}
	if !res.Values.VerificationResult {
		return cli.Exit("❌ Program failed to verify its own proof", 1)
	}

	ip := res.Proof

	out, err := json.MarshalIndent(ip, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal proof: %w", err)
	}

	w := c.App.Writer
	if output := c.String("output"); output != "" {
		if err := os.WriteFile(output, out, 0644); err != nil {
			return fmt.Errorf("failed to write proof: %w", err)
		}
		fmt.Fprintf(w, "✅ Proof written to: %s\n", output)
		fmt.Fprintf(w, "   Leaf index: %d\n", ip.Proof.LeafIndex)
		fmt.Fprintf(w, "   Steps: %d\n", len(ip.Proof.Steps))
		fmt.Fprintf(w, "   Merkle root: %s\n", hexutil.Encode(ip.Root))
	} else {
		fmt.Fprintln(w, string(out))
	}

	id, err := prog.ID()
	if err != nil {
		return err
	}
	store, err := openRunStore(&cfg.Persistence, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := persistence.NewRunRecord(types.RunModeProve, h.Name(), id.Hex(), res.Values, res.Encoded)
	if err != nil {
		return err
	}
	return saveRun(store, run)
}

func verifyCommand(c *cli.Context) error {
	data, err := os.ReadFile(c.String("proof"))
	if err != nil {
		return fmt.Errorf("failed to read proof: %w", err)
	}

	var ip merkle.InclusionProof
	if err := json.Unmarshal(data, &ip); err != nil {
		return fmt.Errorf("failed to parse proof: %w", err)
	}

	root := []byte(ip.Root)
	if rootHex := c.String("root"); rootHex != "" {
		root, err = hexutil.Decode(rootHex)
		if err != nil {
			return fmt.Errorf("invalid root: %w", err)
		}
	}
	if _, err := merkle.ToRoot32(root); err != nil {
		return err
	}

	outcome, err := ip.Verify(root)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if !outcome.Matches {
		fmt.Fprintf(w, "   Leaf index: %d\n", ip.Proof.LeafIndex)
		fmt.Fprintf(w, "   Hash operations: %d\n", outcome.HashOperations)
		return cli.Exit(fmt.Sprintf("❌ Proof does not match root %s", hexutil.Encode(root)), 1)
	}

	fmt.Fprintf(w, "✅ Proof verified!\n")
	fmt.Fprintf(w, "   Hasher: %s\n", ip.Hasher)
	fmt.Fprintf(w, "   Leaf index: %d\n", ip.Proof.LeafIndex)
	fmt.Fprintf(w, "   Merkle root: %s\n", hexutil.Encode(root))
	fmt.Fprintf(w, "   Hash operations: %d\n", outcome.HashOperations)
	return nil
}

func openStoreFromContext(c *cli.Context) (persistence.IRunPersistence, func(), error) {
	pc := persistenceConfigFromContext(c)
	if err := pc.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	l, err := newCommandLogger(c)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	store, err := openRunStore(pc, l)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		_ = store.Close()
		_ = l.Sync()
	}, nil
}

func listRunsCommand(c *cli.Context) error {
	store, closeStore, err := openStoreFromContext(c)
	if err != nil {
		return err
	}
	defer closeStore()

	runs, err := store.ListRuns()
	if err != nil {
		return errors.Wrap(err, "failed to list runs")
	}

	w := c.App.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-7s  %-10s  n=%-6d i=%-6d root=%s ok=%t ops=%d\n",
			r.ID, r.Mode, r.Hasher,
			r.Values.LeafCount, r.Values.VerificationIndex, r.Values.Root.Hex(),
			r.Values.VerificationResult, r.Values.HashOperations)
	}
	return nil
}

func showRunCommand(c *cli.Context) error {
	store, closeStore, err := openStoreFromContext(c)
	if err != nil {
		return err
	}
	defer closeStore()

	id := c.Args().First()
	if id == "" {
		id, err = store.GetLatestRunID()
		if err != nil {
			return errors.Wrap(err, "failed to read latest run")
		}
		if id == "" {
			return cli.Exit("No runs recorded", 1)
		}
	}

	run, err := store.LoadRun(id)
	if err != nil {
		return errors.Wrapf(err, "failed to load run %s", id)
	}
	if run == nil {
		return cli.Exit(fmt.Sprintf("Run %s not found", id), 1)
	}

	out, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}

func programIDCommand(c *cli.Context) error {
	h, err := merkle.HasherForName(c.String("hasher"))
	if err != nil {
		return err
	}
	id, err := program.ProgramID(h)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, id.Hex())
	return nil
}
