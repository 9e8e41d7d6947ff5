// Package benchmark measures how well language models solve pyramid
// puzzles.
//
// A Runner sends each scenario's prompt to every model through a ChatClient
// (OpenRouterClient in production), extracts the JSON answer, scores the path
// and, depending on the verdict, retries with error feedback or follows up
// with the scenario's hints. Every exchange is recorded through a
// report.Logger.
//
// Usage:
//
//	client := benchmark.NewOpenRouterClient(benchmark.ClientOptions{APIKey: key})
//	logger, _ := report.NewLogger("evals")
//	runner := benchmark.NewRunner(client, prompt.NewBuilder(), logger, benchmark.DefaultConfig())
//	outcomes, err := runner.Run(ctx, models, scenarios)
package benchmark
