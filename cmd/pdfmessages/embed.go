package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/embeddings"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate embeddings and run semantic search over chunks",
	Long: `Embed wraps an OpenAI-compatible embeddings endpoint. Every subcommand
prints exactly one JSON object on stdout:

  {"success": true, "embedding": [...]}
  {"success": true, "results": [{"chunk": {...}, "score": 0.91}]}
  {"success": false, "error": "..."}

Chunks are JSON objects {"id": ..., "text": "...", "embedding": [...] | null};
other fields are preserved.`,
}

// --- generate subcommand ---

var embedGenerateCmd = &cobra.Command{
	Use:   "generate <text>",
	Short: "Embed one text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		embedder, err := newEmbedder()
		if err != nil {
			return respondError(cmd.OutOrStdout(), err)
		}
		vectors, err := embedder.EmbedDocuments(cmd.Context(), args)
		if err == nil && len(vectors) == 0 {
			err = errors.New("no vector returned")
		}
		if err != nil {
			return respondError(cmd.OutOrStdout(), fmt.Errorf("failed to generate embedding: %w", err))
		}
		return respond(cmd.OutOrStdout(), map[string]any{"embedding": vectors[0]})
	},
}

// --- generate-batch subcommand ---

var embedBatchCmd = &cobra.Command{
	Use:   "generate-batch",
	Short: "Embed every chunk of a JSON file",
	Long: `Generate-batch reads a JSON array of chunks, embeds each chunk's text and
writes the array back out with an embedding field. A chunk that cannot be
embedded gets a null embedding and the batch continues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")

		chunks, err := embeddings.LoadChunks(input)
		if err != nil {
			return respondError(cmd.OutOrStdout(), err)
		}
		embedder, err := newEmbedder()
		if err != nil {
			return respondError(cmd.OutOrStdout(), err)
		}

		result, err := embeddings.GenerateBatch(cmd.Context(), embedder, chunks)
		if err != nil {
			return respondError(cmd.OutOrStdout(), err)
		}
		if err := embeddings.SaveChunks(output, chunks); err != nil {
			return respondError(cmd.OutOrStdout(), err)
		}
		return respond(cmd.OutOrStdout(), map[string]any{
			"embedded": result.Embedded,
			"failed":   result.Failed,
		})
	},
}

// --- search subcommand ---

var embedSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank chunks by similarity to a query",
	Long: `Search embeds the query and ranks chunks by cosine similarity. Chunks are
read from a JSON file given with --data, or from the SQLite index given with
--index. Chunks without an embedding are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		data, _ := cmd.Flags().GetString("data")
		useIndex := cmd.Flags().Changed("index")
		if data == "" && !useIndex {
			return respondError(out, errors.New("data file required"))
		}
		if data != "" {
			if _, err := os.Stat(data); err != nil {
				return respondError(out, fmt.Errorf("data file required: %w", err))
			}
		}

		embedder, err := newEmbedder()
		if err != nil {
			return respondError(out, err)
		}
		query, err := embedder.EmbedQuery(cmd.Context(), args[0])
		if err != nil {
			return respondError(out, fmt.Errorf("failed to embed query: %w", err))
		}

		var results []embeddings.Result
		if data != "" {
			chunks, err := embeddings.LoadChunks(data)
			if err != nil {
				return respondError(out, err)
			}
			results = embeddings.Search(query, chunks, cfg.Embeddings.Limit)
		} else {
			index, err := embeddings.OpenIndex(cfg.Embeddings.Index)
			if err != nil {
				return respondError(out, err)
			}
			defer index.Close()
			if results, err = index.Search(cmd.Context(), query, cfg.Embeddings.Limit); err != nil {
				return respondError(out, err)
			}
		}
		if results == nil {
			results = []embeddings.Result{}
		}
		return respond(out, map[string]any{"results": results})
	},
}

// --- index subcommand ---

var embedIndexCmd = &cobra.Command{
	Use:   "index <chunks.json>...",
	Short: "Store chunk files in the SQLite index",
	Long: `Index loads chunk files, typically the output of generate-batch, into the
SQLite index named by --index or embeddings.index. Chunks are keyed by id, so
re-indexing a file replaces its chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		index, err := embeddings.OpenIndex(cfg.Embeddings.Index)
		if err != nil {
			return respondError(out, err)
		}
		defer index.Close()

		for _, path := range args {
			chunks, err := embeddings.LoadChunks(path)
			if err != nil {
				return respondError(out, err)
			}
			if err := index.Put(cmd.Context(), chunks...); err != nil {
				return respondError(out, fmt.Errorf("indexing %s: %w", path, err))
			}
		}

		total, embedded, err := index.Count(cmd.Context())
		if err != nil {
			return respondError(out, err)
		}
		return respond(out, map[string]any{"total": total, "embedded": embedded})
	},
}

func init() {
	embedCmd.PersistentFlags().String("api-key", "", "API key (default: GEMINI_API_KEY, GOOGLE_API_KEY or OPENAI_API_KEY)")
	embedCmd.PersistentFlags().String("base-url", "", "OpenAI-compatible API base URL")
	embedCmd.PersistentFlags().String("embedding-model", embeddings.DefaultModel, "embedding model name")
	embedCmd.PersistentFlags().String("index", "", "SQLite index path (default: embeddings.index)")

	embedBatchCmd.Flags().String("input", "", "JSON file of chunks to embed (required)")
	embedBatchCmd.Flags().String("output", "", "path to write the embedded chunks (required)")
	_ = embedBatchCmd.MarkFlagRequired("input")
	_ = embedBatchCmd.MarkFlagRequired("output")

	embedSearchCmd.Flags().String("data", "", "JSON file of chunks with embeddings")
	embedSearchCmd.Flags().Int("limit", embeddings.DefaultLimit, "maximum number of results")

	embedCmd.AddCommand(embedGenerateCmd)
	embedCmd.AddCommand(embedBatchCmd)
	embedCmd.AddCommand(embedSearchCmd)
	embedCmd.AddCommand(embedIndexCmd)
	rootCmd.AddCommand(embedCmd)
}

func newEmbedder() (embeddings.Embedder, error) {
	return embeddings.NewOpenAIEmbedder(embeddings.Config{
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		Model:     cfg.Embeddings.Model,
		BatchSize: cfg.Embeddings.BatchSize,
	})
}

// errReported is returned after a failure has already been written as JSON
var errReported = errors.New("embed command failed")

func respond(w io.Writer, fields map[string]any) error {
	fields["success"] = true
	return json.NewEncoder(w).Encode(fields)
}

func respondError(w io.Writer, err error) error {
	if encErr := json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   err.Error(),
	}); encErr != nil {
		return encErr
	}
	return fmt.Errorf("%w: %w", errReported, err)
}
