package conversion

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverter struct {
	name      string
	available bool
	err       error
	calls     int
}

func (f *fakeConverter) Name() string    { return f.name }
func (f *fakeConverter) Available() bool { return f.available }

func (f *fakeConverter) Convert(_ context.Context, _, pdfPath string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(pdfPath, []byte("%PDF-1.4 fake"), 0644)
}

func writeDocx(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "12_Asha.docx")
	require.NoError(t, os.WriteFile(path, []byte("PK fake docx"), 0644))
	return path
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &fakeConverter{name: "first", available: true}
	second := &fakeConverter{name: "second", available: true}
	chain := NewChain(first, second)

	pdf := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, chain.Convert(context.Background(), writeDocx(t), pdf))

	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
	assert.FileExists(t, pdf)
}

func TestChain_FallsBack(t *testing.T) {
	first := &fakeConverter{name: "first", err: ErrUnavailable}
	second := &fakeConverter{name: "second", available: true}
	chain := NewChain(first, second)

	pdf := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, chain.Convert(context.Background(), writeDocx(t), pdf))
	assert.Equal(t, 1, second.calls)
}

func TestChain_AllFail(t *testing.T) {
	boom := errors.New("boom")
	chain := NewChain(
		&fakeConverter{name: "first", err: ErrUnavailable},
		&fakeConverter{name: "second", err: boom},
	)

	err := chain.Convert(context.Background(), writeDocx(t), filepath.Join(t.TempDir(), "out.pdf"))
	require.Error(t, err)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	require.Len(t, convErr.Attempts, 2)
	assert.Equal(t, "first", convErr.Attempts[0].Converter)
	assert.Equal(t, "second", convErr.Attempts[1].Converter)
	assert.False(t, convErr.Unavailable())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "second: boom")
}

func TestChain_AllUnavailable(t *testing.T) {
	chain := NewChain(
		&fakeConverter{name: "first", err: ErrUnavailable},
		&fakeConverter{name: "second", err: ErrUnavailable},
	)

	err := chain.Convert(context.Background(), writeDocx(t), filepath.Join(t.TempDir(), "out.pdf"))
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.True(t, convErr.Unavailable())
	assert.False(t, chain.Available())
}

func TestChain_Empty(t *testing.T) {
	chain := NewChain()
	assert.Equal(t, "none", chain.Name())
	assert.False(t, chain.Available())

	err := chain.Convert(context.Background(), writeDocx(t), filepath.Join(t.TempDir(), "out.pdf"))
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.True(t, convErr.Unavailable())
}

func TestChain_Name(t *testing.T) {
	chain := NewChain(&fakeConverter{name: "gotenberg"}, &fakeConverter{name: "libreoffice"})
	assert.Equal(t, "gotenberg+libreoffice", chain.Name())
	assert.Len(t, chain.Converters(), 2)
}

func TestGotenbergConverter_Unconfigured(t *testing.T) {
	conv := NewGotenbergConverter("", time.Second)
	assert.False(t, conv.Available())

	err := conv.Convert(context.Background(), writeDocx(t), filepath.Join(t.TempDir(), "out.pdf"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGotenbergConverter_Success(t *testing.T) {
	var gotName, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/forms/libreoffice/convert", r.URL.Path)

		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		data, _ := io.ReadAll(file)
		gotName = header.Filename
		gotBody = string(data)

		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 converted"))
	}))
	defer server.Close()

	conv := NewGotenbergConverter(server.URL+"/", 5*time.Second)
	require.True(t, conv.Available())

	pdf := filepath.Join(t.TempDir(), "PDF", "12_Asha.pdf")
	require.NoError(t, conv.Convert(context.Background(), writeDocx(t), pdf))

	assert.Equal(t, "12_Asha.docx", gotName)
	assert.Equal(t, "PK fake docx", gotBody)
	content, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 converted", string(content))
}

func TestGotenbergConverter_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "LibreOffice failed", http.StatusInternalServerError)
	}))
	defer server.Close()

	pdf := filepath.Join(t.TempDir(), "out.pdf")
	err := NewGotenbergConverter(server.URL, time.Second).Convert(context.Background(), writeDocx(t), pdf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.NoFileExists(t, pdf)
}

func TestGotenbergConverter_NotAPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	pdf := filepath.Join(t.TempDir(), "out.pdf")
	err := NewGotenbergConverter(server.URL, time.Second).Convert(context.Background(), writeDocx(t), pdf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a PDF")
	assert.NoFileExists(t, pdf)
}

func TestSofficeConverter_Missing(t *testing.T) {
	conv := NewSofficeConverter("", time.Second)
	conv.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	assert.False(t, conv.Available())
	err := conv.Convert(context.Background(), writeDocx(t), filepath.Join(t.TempDir(), "out.pdf"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSofficeConverter_PrefersExplicitPath(t *testing.T) {
	var looked []string
	conv := NewSofficeConverter("/opt/lo/soffice", time.Second)
	conv.lookPath = func(name string) (string, error) {
		looked = append(looked, name)
		return name, nil
	}

	assert.True(t, conv.Available())
	assert.Equal(t, []string{"/opt/lo/soffice"}, looked)
}

func TestSofficeConverter_FakeBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "soffice")
	// Arguments: profile --headless --convert-to pdf --outdir <dir> <src>
	body := "#!/bin/sh\nout=\"$6\"\nbase=$(basename \"$7\" .docx)\nprintf '%%PDF-1.4 fake' > \"$out/$base.pdf\"\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0755))

	conv := NewSofficeConverter(script, 10*time.Second)
	pdf := filepath.Join(t.TempDir(), "PDF", "renamed.pdf")
	require.NoError(t, conv.Convert(context.Background(), writeDocx(t), pdf))

	content, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(content))

	entries, err := os.ReadDir(filepath.Dir(pdf))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "working directory must be removed")
}

func TestSofficeConverter_NoOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}

	script := filepath.Join(t.TempDir(), "soffice")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'Error: source file could not be loaded'\nexit 0\n"), 0755))

	err := NewSofficeConverter(script, 10*time.Second).Convert(context.Background(), writeDocx(t), filepath.Join(t.TempDir(), "out.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PDF was not generated")
	assert.Contains(t, err.Error(), "could not be loaded")
}

func TestConversionError_Format(t *testing.T) {
	err := &ConversionError{Source: "a.docx", Message: "no converter configured"}
	assert.Equal(t, "conversion error: a.docx: no converter configured", err.Error())
}
