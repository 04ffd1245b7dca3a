package invoke

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/storage"
)

const (
	inputFileName = "input.xlsx"
	outputDirName = "output"

	completeMessage = "Processing complete. Files saved."
)

// Config configures the invocation pipeline.
type Config struct {
	// StagingDir holds one subdirectory per invocation.
	StagingDir string
	// KeepStaging leaves the invocation directory in place after the run.
	KeepStaging bool
	// ProcessedPrefix is prepended to the file name of every uploaded output.
	ProcessedPrefix string
	// Split holds the splitter options; OutputDir and Logger are set per invocation.
	Split sheetsplit.Options
}

// Response is the outcome reported to the invoker.
type Response struct {
	StatusCode   int    `json:"statusCode"`
	Body         string `json:"body"`
	InvocationID string `json:"invocationId,omitempty"`
	// Files lists the uploaded object keys.
	Files []string `json:"files,omitempty"`
	// Failed lists group keys whose workbook could not be written.
	Failed []string `json:"failed,omitempty"`
}

// Handler runs invocations against a Store.
type Handler struct {
	store storage.Store
	cfg   Config
	log   zerolog.Logger
	newID func() string
}

// NewHandler creates a Handler.
func NewHandler(store storage.Store, cfg Config, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		cfg:   cfg,
		log:   log,
		newID: uuid.NewString,
	}
}

// Handle parses a raw event payload and runs it. A payload without bucket or
// key yields a 400 response and a nil error without touching storage. Other
// failures yield a non-2xx response together with the cause.
func (h *Handler) Handle(ctx context.Context, payload []byte) (Response, error) {
	ev, err := ParseEvent(payload)
	if err != nil {
		h.log.Warn().Err(err).Msg("rejected event")
		return Response{StatusCode: http.StatusBadRequest, Body: "Missing bucket or key in the event"}, nil
	}
	return h.Run(ctx, ev)
}

// Run fetches ev's object into a fresh staging directory, splits it and
// uploads every produced file as <ProcessedPrefix><file name>.
func (h *Handler) Run(ctx context.Context, ev Event) (Response, error) {
	if err := ev.Validate(); err != nil {
		return Response{StatusCode: http.StatusBadRequest, Body: "Missing bucket or key in the event"}, nil
	}

	id := h.newID()
	log := h.log.With().
		Str("invocation_id", id).
		Str("bucket", ev.Bucket).
		Str("key", ev.Key).
		Logger()

	stage := filepath.Join(h.cfg.StagingDir, id)
	if !h.cfg.KeepStaging {
		defer func() {
			if err := os.RemoveAll(stage); err != nil {
				log.Warn().Err(err).Str("staging", stage).Msg("failed to remove staging directory")
			}
		}()
	}

	input := filepath.Join(stage, inputFileName)
	outDir := filepath.Join(stage, outputDirName)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return h.fail(log, id, fmt.Errorf("create staging directory: %w", err))
	}

	log.Info().Msg("fetching input")
	if err := h.store.Fetch(ctx, ev.Bucket, ev.Key, input); err != nil {
		return h.fail(log, id, err)
	}

	opts := h.cfg.Split
	opts.OutputDir = outDir
	opts.Logger = &log
	result, splitErr := sheetsplit.Split(input, opts)
	if splitErr != nil && !(opts.ContinueOnError && result != nil && errors.Is(splitErr, sheetsplit.ErrOutputWrite)) {
		return h.fail(log, id, splitErr)
	}

	files, err := h.upload(ctx, ev.Bucket, outDir)
	if err != nil {
		return h.fail(log, id, err)
	}

	resp := Response{
		StatusCode:   http.StatusOK,
		Body:         completeMessage,
		InvocationID: id,
		Files:        files,
	}
	if splitErr != nil {
		resp.Failed = failedGroups(splitErr)
		resp.Body = fmt.Sprintf("Processing complete. %d files saved, %d groups failed.", len(files), len(resp.Failed))
	}
	log.Info().
		Int("files", len(files)).
		Int("skipped_rows", result.SkippedRows).
		Strs("failed", resp.Failed).
		Msg("invocation complete")
	return resp, nil
}

// upload stores every regular file under dir, in lexical path order, and
// returns the object keys written. The first failure stops the upload.
func (h *Handler) upload(ctx context.Context, bucket, dir string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		key := h.cfg.ProcessedPrefix + d.Name()
		if err := h.store.Store(ctx, bucket, key, path); err != nil {
			return err
		}
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

func (h *Handler) fail(log zerolog.Logger, id string, err error) (Response, error) {
	log.Error().Err(err).Msg("invocation failed")
	return Response{
		StatusCode:   StatusFor(err),
		Body:         err.Error(),
		InvocationID: id,
	}, err
}

// StatusFor maps an invocation error to an HTTP-equivalent status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingInputReference):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, sheetsplit.ErrInputRead), errors.Is(err, sheetsplit.ErrSheetNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// failedGroups lists the group keys of every GroupWriteError in err.
func failedGroups(err error) []string {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	var keys []string
	for _, e := range errs {
		var gwErr *sheetsplit.GroupWriteError
		if errors.As(e, &gwErr) {
			keys = append(keys, gwErr.Key)
		}
	}
	return keys
}
