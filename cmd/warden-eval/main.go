// Command warden-eval evaluates a payment intent file from the
// command line.
//
// Usage:
//
//	go run cmd/warden-eval/main.go -file intent.json
//	go run cmd/warden-eval/main.go -file intent.json -db ./warden.db
//
// The intent file holds {"agentId": "...", "intent": {...}}. Without
// -db the built-in demo policies and merchant directory are used.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/agentpay/warden/internal/domain"
	"github.com/agentpay/warden/internal/envelope"
	"github.com/agentpay/warden/internal/evaluator"
	"github.com/agentpay/warden/internal/merchant"
	"github.com/agentpay/warden/internal/policy"
	"github.com/agentpay/warden/internal/repository"
)

type intentFile struct {
	AgentID string           `json:"agentId"`
	Intent  domain.RawIntent `json:"intent"`
}

func main() {
	var (
		filePath = flag.String("file", "", "intent JSON file ({agentId, intent})")
		dbPath   = flag.String("db", "", "sqlite database path (default: built-in demo fixtures)")
		asJSON   = flag.Bool("json", false, "print the raw result as JSON")
		verbose  = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: warden-eval -file <intent-file.json> [-db warden.db] [-json]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read %s: %v\n", *filePath, err)
		os.Exit(1)
	}

	var input intentFile
	if err := json.Unmarshal(data, &input); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid intent file: %v\n", err)
		os.Exit(1)
	}
	if input.AgentID == "" {
		fmt.Fprintln(os.Stderr, "error: agentId is required")
		os.Exit(1)
	}

	ctx := context.Background()

	eval, cleanup, err := buildEvaluator(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	start := time.Now()
	result, err := eval.Evaluate(ctx, input.Intent, input.AgentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: evaluation failed: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	if *asJSON {
		out, _ := json.MarshalIndent(domain.Response{
			Status: domain.StatusSuccess,
			Data:   result,
		}, "", "  ")
		fmt.Println(string(out))
		return
	}

	printResult(input, result, elapsed)

	if !result.Approved {
		os.Exit(2)
	}
}

// buildEvaluator wires the pipeline over a sqlite store when -db is
// given, otherwise over the in-memory demo fixtures.
func buildEvaluator(ctx context.Context, dbPath string) (*evaluator.Evaluator, func(), error) {
	if dbPath != "" {
		repo, err := repository.New(domain.RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: dbPath,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		resolver := policy.NewStoreResolver(repo)
		oracle := merchant.NewDirectoryOracle(repo, nil, 0)
		eval := evaluator.New(resolver, oracle, envelope.NewBase64Sealer())
		return eval, func() { repo.Close() }, nil
	}

	policies := make(map[string]domain.Policy)
	for _, p := range repository.DemoPolicies() {
		policies[p.AgentID] = p
	}
	directory := make(map[string]domain.MerchantReputation)
	for _, m := range repository.DemoMerchants() {
		directory[m.MerchantID] = m
	}

	resolver := policy.NewStaticResolver(policies)
	oracle := merchant.NewStaticOracle(directory)
	eval := evaluator.New(resolver, oracle, envelope.NewBase64Sealer())
	return eval, func() {}, nil
}

func printResult(input intentFile, result *domain.EvaluationResult, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("Warden intent evaluation")
	fmt.Println("------------------------")
	fmt.Printf("  Agent:       %s\n", input.AgentID)
	if m, ok := input.Intent[domain.FieldMerchant].(string); ok && m != "" {
		fmt.Printf("  Merchant:    %s\n", m)
	}
	fmt.Println()

	fmt.Println("Rule checks")
	names := make([]string, 0, len(result.Checks))
	for name := range result.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		check := result.Checks[name]
		status := "PASS"
		if !check.OK {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %s\n", status, name)
		if check.Reason != "" {
			fmt.Printf("         %s\n", check.Reason)
		}
	}
	fmt.Println()

	verdict := "REJECTED"
	if result.Approved {
		verdict = "APPROVED"
	}
	fmt.Println("Result")
	fmt.Printf("  Verdict:     %s\n", verdict)
	fmt.Printf("  Risk score:  %.2f (%s)\n", result.RiskScore, result.RiskLevel)
	fmt.Printf("  Commitment:  %s\n", result.CommitmentHash)
	fmt.Printf("  Envelope:    %d bytes sealed\n", result.PayloadSize)
	fmt.Printf("  Elapsed:     %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()
}
