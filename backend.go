package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/minios-linux/resxlate/azure"
	"github.com/minios-linux/resxlate/cache"
	"github.com/minios-linux/resxlate/config"
	"github.com/minios-linux/resxlate/google"
	"github.com/minios-linux/resxlate/i18n"
	"github.com/minios-linux/resxlate/service"
)

// providerFlags are the command-line overrides of the provider and cache
// configuration.
type providerFlags struct {
	provider   string
	apiKey     string
	region     string
	endpoint   string
	timeout    time.Duration
	maxRetries int
	useCache   bool
	noCache    bool
}

func addProviderFlags(cmd *cobra.Command, pf *providerFlags) {
	cmd.Flags().StringVar(&pf.provider, "provider", "", "Translation provider: azure, google (default from config)")
	cmd.Flags().StringVar(&pf.apiKey, "api-key", "", "API key (or "+config.EnvAPIKey+" env var)")
	cmd.Flags().StringVar(&pf.region, "region", "", "Azure resource region (or "+config.EnvRegion+" env var)")
	cmd.Flags().StringVar(&pf.endpoint, "endpoint", "", "Custom API endpoint (or "+config.EnvEndpoint+" env var)")
	cmd.Flags().DurationVar(&pf.timeout, "timeout", 0, "Request timeout (0 = config or provider default)")
	cmd.Flags().IntVar(&pf.maxRetries, "max-retries", 0, "Maximum retries on rate limit / server errors (0 = config or default)")
	cmd.Flags().BoolVar(&pf.useCache, "cache", false, "Cache translations between runs")
	cmd.Flags().BoolVar(&pf.noCache, "no-cache", false, "Disable the translation cache even if configured")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"azure\tAzure AI Translator (API key required)",
			"google\tGoogle Translate (free web endpoint)",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// apply merges the flags into cfg; flags win over config and environment.
func (pf *providerFlags) apply(cfg *config.File) error {
	p := &cfg.Provider
	if pf.provider != "" {
		p.Name = pf.provider
	}
	if pf.apiKey != "" {
		p.APIKey = pf.apiKey
	}
	if pf.region != "" {
		p.Region = pf.region
	}
	if pf.endpoint != "" {
		p.Endpoint = pf.endpoint
	}
	if pf.timeout > 0 {
		p.Timeout = pf.timeout
	}
	if pf.maxRetries != 0 {
		p.MaxRetries = pf.maxRetries
	}
	if pf.useCache {
		cfg.Cache.Enabled = true
	}
	if pf.noCache {
		cfg.Cache.Enabled = false
	}
	return cfg.Validate()
}

// newBackend builds the configured translation service. It is a variable
// so tests can substitute an offline service.
var newBackend = func(cfg *config.File) (service.Service, error) {
	p := cfg.Provider
	switch p.Name {
	case "azure":
		if p.APIKey == "" {
			return nil, fmt.Errorf(i18n.T("provider 'azure' requires an API key\n\n"+
				"Option 1: export %s=YOUR_KEY\n"+
				"Option 2: --api-key YOUR_KEY\n\n"+
				"Create a Translator resource in the Azure portal to get a key."), config.EnvAPIKey)
		}
		c, err := azure.New(azure.Config{
			Key:        p.APIKey,
			Region:     p.Region,
			Endpoint:   p.Endpoint,
			Timeout:    p.Timeout,
			MaxRetries: p.MaxRetries,
			OnLog: func(format string, args ...any) {
				if verbose {
					logInfo(format, args...)
				}
			},
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "google":
		return google.New(), nil
	}
	return nil, fmt.Errorf("unknown provider %q", p.Name)
}

// openService returns the backend, wrapped in the translation cache when
// enabled, and a function releasing the cache.
func openService(cfg *config.File) (service.Service, func(), error) {
	backend, err := newBackend(cfg)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Cache.Enabled {
		return backend, func() {}, nil
	}

	var store cache.Store
	path := cfg.CachePath(rootDir)
	if path == config.MemoryCachePath {
		store, err = cache.NewMemoryStore(cfg.Cache.MemorySize)
	} else {
		store, err = cache.OpenSQLite(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening translation cache: %w", err)
	}

	cached := cache.New(backend, store, cfg.Provider.Name)
	cached.OnError = func(err error) {
		logWarning("Translation cache: %v", err)
	}
	closeFn := func() {
		st := cached.Stats()
		if verbose {
			logInfo("Cache: %d hits, %d misses", st.Hits, st.Misses)
		}
		if err := store.Close(); err != nil {
			logWarning("Closing translation cache: %v", err)
		}
	}
	return cached, closeFn, nil
}

// ---------------------------------------------------------------------------
// Progress display
// ---------------------------------------------------------------------------

// progressSink draws a progress bar for one file and returns the callback
// for Options.OnProgress together with a function finishing the bar.
func progressSink(description string, total int) (func(lang string, done, total int), func()) {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	onProgress := func(_ string, done, _ int) {
		_ = bar.Set(done)
	}
	finish := func() {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	return onProgress, finish
}
