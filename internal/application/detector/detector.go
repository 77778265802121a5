package detector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jgarciad/arbscan/internal/cache"
	"github.com/jgarciad/arbscan/internal/domain"
	"github.com/jgarciad/arbscan/internal/ports"
)

// SnapshotFetcher es el subconjunto del fetcher resiliente que usa el detector.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, venue, symbol string) (domain.MarketSnapshot, error)
	Status() map[string]domain.VenueStatus
}

// Config contiene la configuración del detector.
type Config struct {
	Interval     time.Duration // periodo entre ciclos
	CycleTimeout time.Duration // límite global del ciclo (default 30s)
	Venues       []string
	Pairs        []domain.Pair
	BaseAsset    string // asset de partida de los ciclos triangulares

	TradeSize      decimal.Decimal // cantidad base analizada en cross-venue
	MaxPosition    decimal.Decimal // capital máximo por oportunidad (quote)
	MinProfitRatio decimal.Decimal // umbral triangular: net ratio > 1 + esto
	MinCrossProfit decimal.Decimal // umbral cross-venue en moneda quote

	StalenessMax  time.Duration // edad máxima de un snapshot utilizable
	Fees          map[string]domain.Fees
	RiskWeights   domain.RiskWeights
	RiskThreshold float64 // score por encima → rechazada
	DryRun        bool    // un solo ciclo y salir
}

// candidate es una oportunidad recién calculada junto a sus mediciones de riesgo.
type candidate struct {
	opp    domain.Opportunity
	inputs domain.RiskInputs
}

// Detector orquesta el ciclo: fetch concurrente → cache → detección →
// scoring → histórico → ejecución → notificación.
type Detector struct {
	cfg      Config
	fetcher  SnapshotFetcher
	cache    *cache.SnapshotCache
	vol      *domain.VolatilityTracker
	history  ports.History
	notifier ports.Notifier
	executor ports.Executor // puede ser nil: solo detección
}

// New crea un Detector con todas las dependencias inyectadas.
func New(
	cfg Config,
	fetcher SnapshotFetcher,
	snapCache *cache.SnapshotCache,
	history ports.History,
	notifier ports.Notifier,
	executor ports.Executor,
) *Detector {
	if cfg.BaseAsset == "" {
		cfg.BaseAsset = "USDT"
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = 30 * time.Second
	}
	if cfg.StalenessMax <= 0 {
		cfg.StalenessMax = 30 * time.Second
	}
	return &Detector{
		cfg:      cfg,
		fetcher:  fetcher,
		cache:    snapCache,
		vol:      domain.NewVolatilityTracker(20),
		history:  history,
		notifier: notifier,
		executor: executor,
	}
}

// Run ejecuta el loop de detección hasta que el contexto se cancele.
// Con DryRun activo ejecuta un solo ciclo.
func (d *Detector) Run(ctx context.Context) error {
	slog.Info("detector starting",
		"interval", d.cfg.Interval,
		"venues", len(d.cfg.Venues),
		"pairs", len(d.cfg.Pairs),
		"dry_run", d.cfg.DryRun,
	)

	if err := d.runCycle(ctx); err != nil {
		slog.Error("detection cycle failed", "err", err)
		if d.cfg.DryRun {
			return err
		}
	}
	if d.cfg.DryRun {
		return nil
	}

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("detector stopped")
			return nil
		case <-ticker.C:
			if err := d.runCycle(ctx); err != nil {
				slog.Error("detection cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo y devuelve el reporte.
func (d *Detector) RunOnce(ctx context.Context) (domain.CycleReport, error) {
	return d.cycle(ctx)
}

// runCycle ejecuta un ciclo completo, notifica y loguea el resumen.
func (d *Detector) runCycle(ctx context.Context) error {
	report, err := d.cycle(ctx)
	if err != nil {
		return err
	}

	if d.notifier != nil {
		if nerr := d.notifier.Notify(ctx, report); nerr != nil {
			slog.Warn("notifier error", "err", nerr)
		}
	}

	slog.Info("detection cycle complete",
		"snapshots", report.Snapshots,
		"evaluated", report.Evaluated,
		"accepted", report.Accepted,
		"rejected", report.Rejected,
		"duration", report.Duration.Round(time.Millisecond),
	)
	return nil
}

// cycle hace fetch → detect → score → record y devuelve el reporte.
// Un ciclo siempre completa: los venues caídos aportan cero snapshots y
// aparecen en el reporte, pero nunca abortan a los demás.
func (d *Detector) cycle(ctx context.Context) (domain.CycleReport, error) {
	start := time.Now()

	d.fetchAll(ctx)

	now := time.Now()
	fresh := d.cache.Fresh(now, d.cfg.StalenessMax)

	snapshots := 0
	for _, byPair := range fresh {
		snapshots += len(byPair)
	}

	candidates := d.detect(fresh, now)
	report := d.scoreAndRecord(ctx, candidates, now)

	report.At = now
	report.Duration = time.Since(start)
	report.Snapshots = snapshots
	report.Venues = d.fetcher.Status()

	if d.history != nil {
		if pruned, err := d.history.Prune(ctx, now); err != nil {
			slog.Warn("history prune failed", "err", err)
		} else if pruned > 0 {
			slog.Debug("history pruned", "rows", pruned)
		}
	}

	return report, nil
}

// fetchAll lanza una tarea por (venue, symbol) y espera el join acotado por el
// timeout global de ciclo. Las que no llegan se cancelan; los snapshots ya
// completados siguen siendo válidos (política de datos parciales).
func (d *Detector) fetchAll(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, d.cfg.CycleTimeout)
	defer cancel()

	var g errgroup.Group
	for _, venue := range d.cfg.Venues {
		for _, pair := range d.cfg.Pairs {
			venue, symbol := venue, pair.Symbol
			g.Go(func() error {
				snap, err := d.fetcher.Fetch(fetchCtx, venue, symbol)
				if err != nil {
					// Contenido localmente: el fallo ya quedó contabilizado
					// en el fetcher para el reporte.
					slog.Debug("snapshot unavailable", "venue", venue, "symbol", symbol, "err", err)
					return nil
				}
				d.cache.Put(snap)
				d.vol.Observe(venue, symbol, snap.Mid())
				return nil
			})
		}
	}
	_ = g.Wait()
}

// detect corre ambas familias de detección sobre la vista fresca del cache.
func (d *Detector) detect(fresh map[string]map[string]domain.MarketSnapshot, now time.Time) []candidate {
	var out []candidate

	for _, venue := range d.cfg.Venues {
		snaps, ok := fresh[venue]
		if !ok {
			continue
		}
		graph := domain.BuildGraph(venue, d.cfg.Pairs, snaps)
		out = append(out, d.detectTriangular(venue, graph, snaps, now)...)
	}

	out = append(out, d.detectCrossVenue(fresh, now)...)

	// Ranking: net profit descendente, orden de inserción preservado en empates.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].opp.NetProfit.GreaterThan(out[j].opp.NetProfit)
	})
	return out
}

// scoreAndRecord puntúa cada candidato, filtra por el umbral de riesgo,
// registra todo en el histórico y entrega las aceptadas al executor.
func (d *Detector) scoreAndRecord(ctx context.Context, candidates []candidate, now time.Time) domain.CycleReport {
	report := domain.CycleReport{}
	report.Evaluated = len(candidates)

	for _, c := range candidates {
		opp := c.opp
		opp.RiskScore = domain.RiskScore(c.inputs, d.cfg.RiskWeights)

		if opp.RiskScore <= d.cfg.RiskThreshold {
			opp.Accepted = true
		} else {
			opp.Accepted = false
			opp.Reason = fmt.Sprintf("risk %.3f over threshold %.3f", opp.RiskScore, d.cfg.RiskThreshold)
		}

		if d.history != nil {
			if err := d.history.Record(ctx, opp); err != nil {
				slog.Warn("history record failed", "id", opp.ID, "err", err)
			}
		}

		if opp.Accepted {
			report.Accepted++
			if d.executor != nil {
				if err := d.executor.Execute(ctx, opp); err != nil {
					slog.Warn("executor rejected opportunity", "id", opp.ID, "err", err)
				}
			}
		} else {
			report.Rejected++
		}

		report.Opportunities = append(report.Opportunities, opp)
	}

	return report
}

// feesFor devuelve las comisiones configuradas del venue, o cero si faltan.
func (d *Detector) feesFor(venue string) domain.Fees {
	return d.cfg.Fees[venue]
}
