package proclet

import (
	"fmt"
	"log"

	"github.com/icrowley/fake"

	"github.com/krew-solutions/proclet-go/config"
	"github.com/krew-solutions/proclet-go/proclets/channel"
	"github.com/krew-solutions/proclet-go/proclets/performative"
	"github.com/krew-solutions/proclet-go/proclets/population"
)

// defaultPopulation is the process-wide registry proclet.Create
// registers into unless told otherwise. It is unbounded by default;
// hosts with a lifetime-cardinality expectation should call UseOptions
// or UsePopulation with a sized registry instead.
var defaultPopulation = population.New(0)

// defaultChannelMaxlen and netWarnings hold the rest of the package-wide
// defaults a host can drive from a loaded config.Options; see UseOptions.
var (
	defaultChannelMaxlen = 0
	netWarnings          = config.WarnLog
)

// UsePopulation replaces the process-wide population registry future
// Create calls register into. It does not retroactively move existing
// registrations.
func UsePopulation(r *population.Registry) { defaultPopulation = r }

// UseOptions applies a loaded config.Options as this package's
// process-wide defaults: it rebuilds the population registry behind
// Create to opts.PopulationSize, sets the mailbox depth NewChannel hands
// out to opts.ChannelMaxlen, and sets the level HandleWarnings applies to
// a proclet's malformed-net advisories. A host calls this once at
// startup, typically right after config.Load.
func UseOptions(opts config.Options) {
	defaultPopulation = population.New(opts.PopulationSize)
	defaultChannelMaxlen = opts.ChannelMaxlen
	netWarnings = opts.NetWarnings
}

// NewChannel creates a channel using the mailbox depth most recently set
// by UseOptions (unbounded, per config.Default(), if UseOptions was never
// called).
func NewChannel() *channel.Channel {
	return channel.New(defaultChannelMaxlen)
}

// HandleWarnings applies the net-warning level most recently set by
// UseOptions to p.Warnings(): silent drops it, log prints it and returns
// nil so the host can keep running, and fatal returns it unchanged for
// the caller to treat as a startup failure.
func HandleWarnings(p *Proclet) error {
	err := p.Warnings()
	if err == nil {
		return nil
	}
	switch netWarnings {
	case config.WarnSilent:
		return nil
	case config.WarnFatal:
		return err
	default:
		log.Printf("proclet: net warnings for %s: %v", p.UID, err)
		return nil
	}
}

type createConfig struct {
	uid      performative.UID
	name     string
	opts     []Option
	registry *population.Registry
}

// CreateOption customizes a Create call beyond its defaults.
type CreateOption func(*createConfig)

// WithUID overrides the randomly generated uid Create would otherwise
// assign.
func WithUID(uid performative.UID) CreateOption {
	return func(c *createConfig) { c.uid = uid }
}

// WithName overrides the fake human name Create would otherwise assign.
func WithName(name string) CreateOption {
	return func(c *createConfig) { c.name = name }
}

// WithProcletOptions forwards opts to New.
func WithProcletOptions(opts ...Option) CreateOption {
	return func(c *createConfig) { c.opts = append(c.opts, opts...) }
}

// WithRegistry registers the created proclet into r instead of the
// process-wide default.
func WithRegistry(r *population.Registry) CreateOption {
	return func(c *createConfig) { c.registry = r }
}

// Create builds a proclet of the given behavior, defaulting its uid to a
// fresh random one and its name to a fake first name suffixed with the
// uid's first 8 hex characters — so two proclets of the same kind stay
// distinguishable in logs even when fake.FirstName() collides — then
// registers it in the population so other proclets can resolve it
// symbolically by uid. Pass WithRegistry(nil) to skip registration
// entirely.
func Create(behavior Behavior, opts ...CreateOption) *Proclet {
	cfg := createConfig{uid: performative.NewUID(), registry: defaultPopulation}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.name == "" {
		cfg.name = fmt.Sprintf("%s-%s", fake.FirstName(), cfg.uid.String()[:8])
	}
	p := New(cfg.uid, cfg.name, behavior, cfg.opts...)
	if cfg.registry != nil {
		cfg.registry.Register(p.UID, p)
	}
	return p
}
