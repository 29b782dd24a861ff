package service

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/Flaque/filet"
	"github.com/Houeta/addrcheck/internal/geocoding"
	"github.com/Houeta/addrcheck/internal/metrics"
	"github.com/Houeta/addrcheck/internal/models"
	"github.com/Houeta/addrcheck/internal/progress"
	"github.com/Houeta/addrcheck/internal/transcode"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// stubProvider is a deterministic Provider implementation that counts calls.
type stubProvider struct {
	searchFunc func(ctx context.Context, query string) (*models.Match, error)
	calls      int
}

func (s *stubProvider) Search(ctx context.Context, query string) (*models.Match, error) {
	s.calls++
	return s.searchFunc(ctx, query)
}

const defaultThreshold = 0.7

const testInput = "nom\tadresse\tcp\tville\tcontact\n" +
	"Jean Dupont\t1 Rue de la Paix\t75002\tParis\t0600000000\n" +
	"Marie Curie\t36 Quai de Béthune\t75004\tParis\t0611111111\n" +
	"Louis Blanc\t2 Place du Marché\t01000\tBourg-en-Bresse\t0622222222\n" +
	"Anne Martin\t8 Rue Victor Hugo\t69002\tLyon\t0633333333\n" +
	"Paul Durand\t5 Cours Mirabeau\t13100\tAix-en-Provence\t0644444444\n"

func newTestService(provider geocoding.Provider) *VerifyService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	reg := prometheus.NewRegistry()
	return NewVerifyService(
		logger,
		provider,
		"stub",
		metrics.NewMetrics(reg),
		rate.NewLimiter(rate.Inf, 0), // no pacing in tests
		defaultThreshold,
		progress.Noop{},
	)
}

func scoreStub(score float64) *stubProvider {
	return &stubProvider{
		searchFunc: func(_ context.Context, _ string) (*models.Match, error) {
			return &models.Match{Score: score}, nil
		},
	}
}

func runPipeline(t *testing.T, svc *VerifyService, input string, limit int) (string, int, error) {
	t.Helper()
	var out bytes.Buffer
	written, err := svc.Run(
		context.Background(),
		transcode.NewReader(strings.NewReader(input)),
		transcode.NewWriter(&out),
		limit,
	)
	return out.String(), written, err
}

func TestRun_Limit(t *testing.T) {
	t.Run("limit below row count truncates", func(t *testing.T) {
		provider := scoreStub(0.95)
		svc := newTestService(provider)

		out, written, err := runPipeline(t, svc, testInput, 2)

		require.NoError(t, err)
		assert.Equal(t, 2, written)
		assert.Equal(t, 2, provider.calls, "a record past the limit must never be queried")

		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		require.Len(t, lines, 3) // header + 2 rows
		assert.True(t, strings.HasPrefix(lines[1], "Jean Dupont\t"))
		assert.True(t, strings.HasPrefix(lines[2], "Marie Curie\t"))
	})

	t.Run("limit above row count processes everything", func(t *testing.T) {
		provider := scoreStub(0.95)
		svc := newTestService(provider)

		_, written, err := runPipeline(t, svc, testInput, 100)

		require.NoError(t, err)
		assert.Equal(t, 5, written)
		assert.Equal(t, 5, provider.calls)
	})

	t.Run("zero limit writes header only", func(t *testing.T) {
		provider := scoreStub(0.95)
		svc := newTestService(provider)

		out, written, err := runPipeline(t, svc, testInput, 0)

		require.NoError(t, err)
		assert.Equal(t, 0, written)
		assert.Equal(t, 0, provider.calls)
		assert.Equal(t, "nom\tadresse\tcp\tville\tcontact\tadresse_valide\n", out)
	})
}

func TestRun_Verdict(t *testing.T) {
	t.Run("high score renders true", func(t *testing.T) {
		svc := newTestService(scoreStub(0.95))

		out, _, err := runPipeline(t, svc, testInput, 1)

		require.NoError(t, err)
		assert.Contains(t, out, "Jean Dupont\t1 Rue de la Paix\t75002\tParis\t0600000000\ttrue\n")
	})

	t.Run("low score renders false", func(t *testing.T) {
		svc := newTestService(scoreStub(0.4))

		out, _, err := runPipeline(t, svc, testInput, 1)

		require.NoError(t, err)
		assert.Contains(t, out, "Jean Dupont\t1 Rue de la Paix\t75002\tParis\t0600000000\tfalse\n")
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		svc := newTestService(scoreStub(0.7))

		out, _, err := runPipeline(t, svc, testInput, 1)

		require.NoError(t, err)
		assert.Contains(t, out, "\ttrue\n")
	})

	t.Run("provider error renders false and continues", func(t *testing.T) {
		provider := &stubProvider{
			searchFunc: func(_ context.Context, _ string) (*models.Match, error) {
				return nil, assert.AnError
			},
		}
		svc := newTestService(provider)

		out, written, err := runPipeline(t, svc, testInput, 3)

		require.NoError(t, err)
		assert.Equal(t, 3, written)
		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		require.Len(t, lines, 4)
		for _, line := range lines[1:] {
			assert.True(t, strings.HasSuffix(line, "\tfalse"), "lookup failures must fold to false: %q", line)
		}
	})

	t.Run("query concatenates address, postal code and city", func(t *testing.T) {
		var gotQuery string
		provider := &stubProvider{
			searchFunc: func(_ context.Context, query string) (*models.Match, error) {
				gotQuery = query
				return &models.Match{Score: 0.9}, nil
			},
		}
		svc := newTestService(provider)

		_, _, err := runPipeline(t, svc, testInput, 1)

		require.NoError(t, err)
		assert.Equal(t, "1 Rue de la Paix, 75002 Paris", gotQuery)
	})
}

func TestRun_MalformedInput(t *testing.T) {
	t.Run("decode failure aborts the run", func(t *testing.T) {
		input := "nom\tadresse\tcp\tville\tcontact\n" +
			"Jean Dupont\t1 Rue de la Paix\t75002\tParis\t0600000000\n" +
			"broken\trow\n" +
			"Marie Curie\t36 Quai de Béthune\t75004\tParis\t0611111111\n"
		provider := scoreStub(0.95)
		svc := newTestService(provider)

		out, written, err := runPipeline(t, svc, input, 10)

		require.Error(t, err)
		assert.ErrorIs(t, err, transcode.ErrMalformedRecord)
		assert.Equal(t, 1, written, "rows before the failure stay written")
		assert.Equal(t, 1, provider.calls, "no row past the failure is queried")
		assert.Contains(t, out, "Jean Dupont\t1 Rue de la Paix\t75002\tParis\t0600000000\ttrue\n",
			"rows verified before the failure must reach the output stream")
		assert.NotContains(t, out, "Marie Curie")
	})

	t.Run("malformed row past the limit is never reached", func(t *testing.T) {
		input := "nom\tadresse\tcp\tville\tcontact\n" +
			"Jean Dupont\t1 Rue de la Paix\t75002\tParis\t0600000000\n" +
			"broken\trow\n"
		svc := newTestService(scoreStub(0.95))

		_, written, err := runPipeline(t, svc, input, 1)

		require.NoError(t, err)
		assert.Equal(t, 1, written)
	})
}

func TestRun_Deterministic(t *testing.T) {
	defer filet.CleanUp(t)

	input := filet.TmpFile(t, "", testInput)
	outDir := filet.TmpDir(t, "")

	runOnce := func(name string) []byte {
		in, err := os.Open(input.Name())
		require.NoError(t, err)
		defer in.Close()

		out, err := os.Create(outDir + "/" + name)
		require.NoError(t, err)
		defer out.Close()

		svc := newTestService(scoreStub(0.82))
		_, err = svc.Run(context.Background(), transcode.NewReader(in), transcode.NewWriter(out), 5)
		require.NoError(t, err)

		data, err := os.ReadFile(out.Name())
		require.NoError(t, err)
		return data
	}

	first := runOnce("first.tsv")
	second := runOnce("second.tsv")

	assert.Equal(t, first, second, "two runs over the same input must be byte-identical")
}
