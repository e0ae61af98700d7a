package wal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   int    `json:"id"`
	Note string `json:"note"`
}

func TestWriteAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	w, err := NewWAL(path)
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		require.NoError(t, w.Write(record{ID: i, Note: "n"}))
	}
	require.NoError(t, w.Close())

	w, err = NewWAL(path)
	require.NoError(t, err)
	defer w.Close()

	var got []record
	err = w.ReadAll(func(raw json.RawMessage) error {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[2].ID)

	require.NoError(t, w.Write(record{ID: 4}))
	count := 0
	require.NoError(t, w.ReadAll(func(json.RawMessage) error { count++; return nil }))
	assert.Equal(t, 4, count)
}

func TestReadAllStopsOnCallbackError(t *testing.T) {
	w, err := NewWAL(filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Write(record{ID: 1}))
	assert.ErrorIs(t, w.ReadAll(func(json.RawMessage) error { return assert.AnError }), assert.AnError)
}

func TestReadAllCorruptTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	require.NoError(t, os.WriteFile(path, []byte("{\"id\":1}\n{\"id\":"), FileModeReadOnly))
	w, err := NewWAL(path)
	require.NoError(t, err)
	defer w.Close()
	assert.Error(t, w.ReadAll(func(json.RawMessage) error { return nil }))
}
