package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DipScan/internal/domain/models"
	domrepo "DipScan/internal/domain/repository"
	pkgch "DipScan/pkg/clickhouse"
)

func newMockCH(t *testing.T) (*pkgch.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return pkgch.NewClientWithDB(db), mock
}

func TestCHPriceStoreFetch(t *testing.T) {
	ch, mock := newMockCH(t)
	store := NewCHPriceStore(ch, "daily_closes", nil)
	store.now = func() time.Time { return fixed }

	mock.ExpectQuery("SELECT date, close\\s+FROM daily_closes FINAL").
		WithArgs("BTC-USD", fixed.AddDate(0, 0, -30)).
		WillReturnRows(sqlmock.NewRows([]string{"date", "close"}).
			AddRow(day7, 100.0).
			AddRow(day8, 102.0))

	series, err := store.Fetch(context.Background(), models.NewAsset("BTC-USD", "", ""), 30)
	require.NoError(t, err)
	assert.Equal(t, sampleSeries("BTC-USD"), series)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHPriceStoreFetchErrors(t *testing.T) {
	ch, mock := newMockCH(t)
	store := NewCHPriceStore(ch, "daily_closes", nil)

	mock.ExpectQuery("FROM daily_closes").WillReturnRows(sqlmock.NewRows([]string{"date", "close"}))
	_, err := store.Fetch(context.Background(), models.NewAsset("NOPE-USD", "", ""), 30)
	assert.ErrorIs(t, err, domrepo.ErrUnknownAsset)

	mock.ExpectQuery("FROM daily_closes").WillReturnError(errors.New("connection reset"))
	_, err = store.Fetch(context.Background(), models.NewAsset("BTC-USD", "", ""), 30)
	assert.ErrorIs(t, err, domrepo.ErrDataUnavailable)
	assert.NotErrorIs(t, err, domrepo.ErrUnknownAsset)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHPriceStoreSaveAndInit(t *testing.T) {
	ch, mock := newMockCH(t)
	store := NewCHPriceStore(ch, "daily_closes", nil)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS daily_closes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO daily_closes")
	prep.ExpectExec().WithArgs("BTC-USD", day7, 100.0).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("BTC-USD", day8, 102.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Init(context.Background()))
	require.NoError(t, store.Save(context.Background(), sampleSeries("BTC-USD")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type failingSaver struct{ saved int }

func (f *failingSaver) Save(context.Context, models.PriceSeries) error {
	f.saved++
	return errors.New("disk full")
}

func TestArchivingProviderIgnoresSaveFailures(t *testing.T) {
	stub := &stubProvider{name: "coingecko", fetch: func(_ context.Context, a models.Asset, _ int) (models.PriceSeries, error) {
		return sampleSeries(a.Ticker), nil
	}}
	saver := &failingSaver{}
	p := NewArchivingProvider(stub, saver, nil)

	series, err := p.Fetch(context.Background(), models.NewAsset("BTC-USD", "", ""), 30)
	require.NoError(t, err)
	assert.Equal(t, 2, series.Len())
	assert.Equal(t, 1, saver.saved)
	assert.Equal(t, "coingecko", p.Name())
}

func testReport() *models.ScanReport {
	finished := time.Date(2024, 3, 10, 12, 0, 5, 0, time.UTC)
	return &models.ScanReport{
		RunID:      "run-1",
		StartedAt:  finished.Add(-5 * time.Second),
		FinishedAt: finished,
		Ranked: models.RankedResult{Signals: []models.AssetSignal{
			{
				Rank:  1,
				Asset: models.NewAsset("SOL-USD", "Solana", "solana"),
				Probabilities: models.HorizonProbabilities{
					{Horizon: 30, Value: 30, Defined: true},
					{Horizon: 90, Value: 20, Defined: true},
				},
				Average:      25,
				Signal:       models.SignalLikelyDip,
				Observations: 179,
			},
			{
				Rank:  2,
				Asset: models.NewAsset("BTC-USD", "Bitcoin", "bitcoin"),
				Probabilities: models.HorizonProbabilities{
					{Horizon: 30, Value: 10, Defined: true},
					{Horizon: 90, Defined: false},
				},
				Average:      10,
				Signal:       models.SignalStable,
				Observations: 60,
			},
		}},
	}
}

func TestCHSignalStoreWrite(t *testing.T) {
	ch, mock := newMockCH(t)
	store := NewCHSignalStore(ch, "dip_signals", nil)
	report := testReport()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO dip_signals")
	prep.ExpectExec().
		WithArgs("run-1", report.FinishedAt, 1, "SOL-USD", "Solana",
			`[{"horizon":30,"value":30},{"horizon":90,"value":20}]`, 25.0, "LIKELY_DIP", 179).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("run-1", report.FinishedAt, 2, "BTC-USD", "Bitcoin",
			`[{"horizon":30,"value":10},{"horizon":90,"value":null}]`, 10.0, "STABLE", 60).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Write(context.Background(), report))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "clickhouse", store.Name())
}

func TestCHSignalStoreLatest(t *testing.T) {
	ch, mock := newMockCH(t)
	store := NewCHSignalStore(ch, "dip_signals", nil)

	mock.ExpectQuery("SELECT rank, ticker, name, probabilities, avg, signal, observations").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"rank", "ticker", "name", "probabilities", "avg", "signal", "observations"}).
			AddRow(1, "SOL-USD", "Solana", `[{"horizon":30,"value":30},{"horizon":90,"value":null}]`, 30.0, "LIKELY_DIP", 179))

	got, err := store.Latest(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, "SOL-USD", got[0].Asset.Ticker)
	assert.Equal(t, models.SignalLikelyDip, got[0].Signal)
	assert.Equal(t, 179, got[0].Observations)
	p90, ok := got[0].Probabilities.Get(90)
	require.True(t, ok)
	assert.False(t, p90.Defined)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHSignalStoreWriteError(t *testing.T) {
	ch, mock := newMockCH(t)
	store := NewCHSignalStore(ch, "dip_signals", nil)

	mock.ExpectBegin().WillReturnError(errors.New("readonly"))
	err := store.Write(context.Background(), testReport())
	assert.ErrorContains(t, err, "insert signals")
	assert.NoError(t, mock.ExpectationsWereMet())
}
