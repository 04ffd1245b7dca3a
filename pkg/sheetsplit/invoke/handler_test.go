package invoke

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/storage"
	"github.com/xuri/excelize/v2"
)

// MockStore records storage calls.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Fetch(ctx context.Context, bucket, key, dst string) error {
	args := m.Called(ctx, bucket, key, dst)
	return args.Error(0)
}

func (m *MockStore) Store(ctx context.Context, bucket, key, src string) error {
	args := m.Called(ctx, bucket, key, src)
	return args.Error(0)
}

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "source.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func clientRows() [][]interface{} {
	return [][]interface{}{
		{"ID", "Name", "Type", "Client"},
		{1, "Alice", "X", "Acme"},
		{2, "Bob", "Y", "Acme/Corp"},
		{3, "Carl", "Z", ""},
	}
}

// copyOnFetch makes a Fetch expectation deliver src to the requested path.
func copyOnFetch(t *testing.T, src string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		data, err := os.ReadFile(src)
		require.NoError(t, err)
		dst := args.String(3)
		require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))
		require.NoError(t, os.WriteFile(dst, data, 0644))
	}
}

func newTestHandler(store storage.Store, staging string) *Handler {
	split := sheetsplit.DefaultOptions("")
	split.Columns = []string{"A", "B", "C", "D"}

	h := NewHandler(store, Config{
		StagingDir:      staging,
		ProcessedPrefix: "processed/",
		Split:           split,
	}, zerolog.Nop())
	h.newID = func() string { return "inv-1" }
	return h
}

func TestHandleMissingKey(t *testing.T) {
	store := new(MockStore)
	h := newTestHandler(store, t.TempDir())

	resp, err := h.Handle(context.Background(), []byte(`{"bucket":"uploads"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing bucket or key in the event", resp.Body)

	store.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleSuccess(t *testing.T) {
	src := writeWorkbook(t, sheetsplit.DefaultSheetName, clientRows())
	staging := t.TempDir()

	store := new(MockStore)
	store.On("Fetch", mock.Anything, "uploads", "in/klanten.xlsx", filepath.Join(staging, "inv-1", "input.xlsx")).
		Run(copyOnFetch(t, src)).
		Return(nil)
	store.On("Store", mock.Anything, "uploads", "processed/Startstanden_Acme.xlsx",
		filepath.Join(staging, "inv-1", "output", "Acme", "Startstanden_Acme.xlsx")).Return(nil)
	store.On("Store", mock.Anything, "uploads", "processed/Startstanden_Acme-Corp.xlsx",
		filepath.Join(staging, "inv-1", "output", "Acme-Corp", "Startstanden_Acme-Corp.xlsx")).Return(nil)

	h := newTestHandler(store, staging)
	resp, err := h.Handle(context.Background(), []byte(`{"bucket":"uploads","key":"in/klanten.xlsx"}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Processing complete. Files saved.", resp.Body)
	assert.Equal(t, "inv-1", resp.InvocationID)
	assert.Equal(t, []string{
		"processed/Startstanden_Acme.xlsx",
		"processed/Startstanden_Acme-Corp.xlsx",
	}, resp.Files)
	assert.Empty(t, resp.Failed)

	store.AssertExpectations(t)
	assert.NoDirExists(t, filepath.Join(staging, "inv-1"))
}

func TestRunKeepStaging(t *testing.T) {
	src := writeWorkbook(t, sheetsplit.DefaultSheetName, clientRows())
	staging := t.TempDir()

	store := new(MockStore)
	store.On("Fetch", mock.Anything, "uploads", "in.xlsx", mock.Anything).Run(copyOnFetch(t, src)).Return(nil)
	store.On("Store", mock.Anything, "uploads", mock.Anything, mock.Anything).Return(nil)

	h := newTestHandler(store, staging)
	h.cfg.KeepStaging = true

	resp, err := h.Run(context.Background(), Event{Bucket: "uploads", Key: "in.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.FileExists(t, filepath.Join(staging, "inv-1", "input.xlsx"))
	assert.FileExists(t, filepath.Join(staging, "inv-1", "output", "Acme", "Startstanden_Acme.xlsx"))
	store.AssertNumberOfCalls(t, "Store", 2)
}

func TestRunFetchFailure(t *testing.T) {
	staging := t.TempDir()
	fetchErr := &storage.Error{Op: storage.OpFetch, Bucket: "uploads", Key: "gone.xlsx", Err: storage.ErrObjectNotFound}

	store := new(MockStore)
	store.On("Fetch", mock.Anything, "uploads", "gone.xlsx", mock.Anything).Return(fetchErr)

	h := newTestHandler(store, staging)
	resp, err := h.Run(context.Background(), Event{Bucket: "uploads", Key: "gone.xlsx"})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrFetch)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	store.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.NoDirExists(t, filepath.Join(staging, "inv-1"))
}

func TestRunSheetNotFound(t *testing.T) {
	src := writeWorkbook(t, "Blad1", clientRows())

	store := new(MockStore)
	store.On("Fetch", mock.Anything, "uploads", "in.xlsx", mock.Anything).Run(copyOnFetch(t, src)).Return(nil)

	h := newTestHandler(store, t.TempDir())
	resp, err := h.Run(context.Background(), Event{Bucket: "uploads", Key: "in.xlsx"})
	assert.ErrorIs(t, err, sheetsplit.ErrSheetNotFound)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	store.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunUploadFailure(t *testing.T) {
	src := writeWorkbook(t, sheetsplit.DefaultSheetName, clientRows())
	storeErr := &storage.Error{Op: storage.OpStore, Bucket: "uploads", Err: errors.New("quota exceeded")}

	store := new(MockStore)
	store.On("Fetch", mock.Anything, "uploads", "in.xlsx", mock.Anything).Run(copyOnFetch(t, src)).Return(nil)
	store.On("Store", mock.Anything, "uploads", "processed/Startstanden_Acme.xlsx", mock.Anything).Return(storeErr)

	h := newTestHandler(store, t.TempDir())
	resp, err := h.Run(context.Background(), Event{Bucket: "uploads", Key: "in.xlsx"})
	assert.ErrorIs(t, err, storage.ErrStore)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	store.AssertNumberOfCalls(t, "Store", 1)
}

func TestRunContinueOnWriteError(t *testing.T) {
	src := writeWorkbook(t, sheetsplit.DefaultSheetName, clientRows())
	staging := t.TempDir()

	store := new(MockStore)
	store.On("Fetch", mock.Anything, "uploads", "in.xlsx", mock.Anything).
		Run(func(args mock.Arguments) {
			copyOnFetch(t, src)(args)
			// Occupy the Acme group folder with a regular file.
			outDir := filepath.Join(filepath.Dir(args.String(3)), "output")
			require.NoError(t, os.WriteFile(filepath.Join(outDir, "Acme"), nil, 0644))
		}).
		Return(nil)
	store.On("Store", mock.Anything, "uploads", mock.Anything, mock.Anything).Return(nil)

	h := newTestHandler(store, staging)
	h.cfg.Split.ContinueOnError = true

	resp, err := h.Run(context.Background(), Event{Bucket: "uploads", Key: "in.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Acme"}, resp.Failed)
	assert.Contains(t, resp.Files, "processed/Startstanden_Acme-Corp.xlsx")
	assert.Contains(t, resp.Body, "1 groups failed")
}

func TestRunReportsKeyOutsideOutputDir(t *testing.T) {
	src := writeWorkbook(t, sheetsplit.DefaultSheetName, [][]interface{}{
		{"ID", "Name", "Type", "Client"},
		{1, "Alice", "X", "Acme"},
		{2, "Bob", "Y", ".."},
	})

	store := new(MockStore)
	store.On("Fetch", mock.Anything, "uploads", "in.xlsx", mock.Anything).Run(copyOnFetch(t, src)).Return(nil)
	store.On("Store", mock.Anything, "uploads", "processed/Startstanden_Acme.xlsx", mock.Anything).Return(nil)

	h := newTestHandler(store, t.TempDir())
	h.cfg.Split.ContinueOnError = true

	resp, err := h.Run(context.Background(), Event{Bucket: "uploads", Key: "in.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{".."}, resp.Failed)
	assert.Equal(t, []string{"processed/Startstanden_Acme.xlsx"}, resp.Files)
	store.AssertNumberOfCalls(t, "Store", 1)
}

func TestRunAbortsOnKeyOutsideOutputDir(t *testing.T) {
	src := writeWorkbook(t, sheetsplit.DefaultSheetName, [][]interface{}{
		{"ID", "Name", "Type", "Client"},
		{1, "Bob", "Y", ".."},
	})

	store := new(MockStore)
	store.On("Fetch", mock.Anything, "uploads", "in.xlsx", mock.Anything).Run(copyOnFetch(t, src)).Return(nil)

	h := newTestHandler(store, t.TempDir())
	resp, err := h.Run(context.Background(), Event{Bucket: "uploads", Key: "in.xlsx"})
	assert.ErrorIs(t, err, sheetsplit.ErrOutputWrite)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	store.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{nil, http.StatusOK},
		{ErrMissingInputReference, http.StatusBadRequest},
		{&storage.Error{Op: storage.OpFetch, Err: storage.ErrObjectNotFound}, http.StatusNotFound},
		{&sheetsplit.InputError{Err: errors.New("zip: not a valid zip file")}, http.StatusUnprocessableEntity},
		{sheetsplit.ErrInvalidColumn, http.StatusInternalServerError},
		{&storage.Error{Op: storage.OpStore, Err: errors.New("denied")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, StatusFor(tt.err), "%v", tt.err)
	}
}
