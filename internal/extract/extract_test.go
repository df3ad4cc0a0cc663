package extract_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/extract"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
)

func TestExtractPlainText(t *testing.T) {
	m := extract.NewManager()
	for _, name := range []string{"doc.txt", "notes.md", "readme.MARKDOWN"} {
		text, err := m.Extract(context.Background(), name, strings.NewReader("Loan Amount: RM10,000"))
		require.NoError(t, err, name)
		require.Equal(t, "Loan Amount: RM10,000", text)
	}
}

func TestExtractUnsupportedExtension(t *testing.T) {
	m := extract.NewManager()
	_, err := m.Extract(context.Background(), "scan.pdf", strings.NewReader("%PDF"))
	require.ErrorIs(t, err, apperrors.ErrUnsupportedFile)
}

type upperExtractor struct{}

func (upperExtractor) Extract(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(string(data)), nil
}

func TestExtractCustomRegistration(t *testing.T) {
	m := extract.NewManager()
	m.Register(".csv", upperExtractor{})
	text, err := m.Extract(context.Background(), "data.csv", strings.NewReader("a,b"))
	require.NoError(t, err)
	require.Equal(t, "A,B", text)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk error") }

func TestExtractReadFailure(t *testing.T) {
	m := extract.NewManager()
	_, err := m.Extract(context.Background(), "doc.txt", failingReader{})
	require.Error(t, err)
	require.NotErrorIs(t, err, apperrors.ErrUnsupportedFile)
}
