// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/helper/posix"
	x509probe "github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/probe"
	"github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/truststore"
	x509verify "github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/verify"
	"github.com/H0llyW00dzZ/tls-cert-verifier/src/logger"
	"github.com/spf13/cobra"
)

var (
	configFile     string
	trustStorePath string
	repeatCount    int
	repeatInterval time.Duration
	checkOCSP      bool
	showCache      bool
	jsonStatus     bool
)

// OperationPerformed reports whether a verification was carried out, so the
// entrypoint can distinguish "ran" from "showed help".
var OperationPerformed bool

// Execute runs the root command, verifying the certificate chain a host
// presents against the configured trust anchors through the caching engine.
func Execute(ctx context.Context, version string, log logger.Logger) error {
	rootCmd := &cobra.Command{
		Use:     posix.GetExecutableName() + " [HOSTNAME[:PORT]]",
		Short:   "TLS certificate verifier with caching and request coalescing",
		Version: version,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execVerify(cmd.Context(), args[0], log)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "load engine configuration from FILE (.json, .yaml, .yml)")
	rootCmd.Flags().StringVarP(&trustStorePath, "trust-store", "t", "", "verify against PEM trust anchors at PATH instead of system roots")
	rootCmd.Flags().IntVarP(&repeatCount, "repeat", "r", 1, "verify N times to demonstrate cache behavior")
	rootCmd.Flags().DurationVar(&repeatInterval, "interval", 0, "pause between repeated verifications")
	rootCmd.Flags().BoolVar(&checkOCSP, "ocsp", false, "evaluate the stapled OCSP response")
	rootCmd.Flags().BoolVar(&showCache, "show-cache", false, "print the verification cache as a table afterwards")
	rootCmd.Flags().BoolVar(&jsonStatus, "json-status", false, "print the verification cache and counters as JSON afterwards")

	return rootCmd.ExecuteContext(ctx)
}

// execVerify captures the chain the target presents, verifies it through the
// caching engine, and reports one line per attempt plus optional cache
// diagnostics.
func execVerify(ctx context.Context, target string, log logger.Logger) error {
	config, err := LoadConfig(configFile)
	if err != nil {
		return err
	}
	if trustStorePath != "" {
		config.TrustStore.Path = trustStorePath
	}

	// Resolve trust anchors: custom store when configured, system roots otherwise.
	var roots *x509.CertPool
	var store *truststore.Store
	var verifier *x509verify.Verifier
	if config.TrustStore.Path != "" {
		store, err = truststore.Open(config.TrustStore.Path, func() {
			if verifier != nil {
				verifier.OnTrustStoreChanged()
			}
		}, log)
		if err != nil {
			return err
		}
		defer store.Close()
		roots = store.Pool()
		log.Printf("Loaded %d trust anchors from %s", store.Len(), config.TrustStore.Path)
	}

	verifier = x509verify.NewVerifier(x509verify.NewBuiltinProc(roots), config.EngineOptions())
	defer verifier.Close()

	if store != nil && config.TrustStore.Watch {
		if err := store.Watch(); err != nil {
			return err
		}
	}

	var flags x509verify.VerifyFlags
	if checkOCSP {
		flags |= x509verify.FlagEnableRevocationChecking
	}

	material, err := x509probe.FetchPeerMaterial(ctx, target, config.ProbeTimeout(), flags)
	if err != nil {
		return err
	}
	key, err := x509verify.NewRequestKey(material)
	if err != nil {
		return err
	}

	var outcome x509verify.Outcome
	metrics := verifier.Metrics()
	for attempt := 1; attempt <= repeatCount; attempt++ {
		hitsBefore := metrics.CacheHits.Count()
		start := time.Now()
		outcome, err = verifier.VerifyWait(ctx, key)
		if err != nil {
			return err
		}

		source := "miss"
		if metrics.CacheHits.Count() > hitsBefore {
			source = "hit"
		}
		log.Printf("attempt %d: %s (cache %s, %v)", attempt, outcome.Status, source, time.Since(start).Round(time.Microsecond))

		if attempt < repeatCount && repeatInterval > 0 {
			select {
			case <-time.After(repeatInterval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	printOutcome(log, key, outcome)
	if showCache {
		log.Println()
		log.Println(verifier.RenderCacheTable())
	}
	if jsonStatus {
		status, err := verifier.CacheStatusJSON()
		if err != nil {
			return err
		}
		log.Println(string(status))
	}

	OperationPerformed = true
	if !outcome.OK() {
		return fmt.Errorf("verification of %s failed: %s", key.Hostname(), outcome.Status)
	}
	return nil
}

// printOutcome reports the final verification result for the target.
func printOutcome(log logger.Logger, key x509verify.RequestKey, outcome x509verify.Outcome) {
	log.Printf("\n%s: %s", key.Hostname(), outcome.Status)
	if outcome.Detail != "" {
		log.Printf("  detail: %s", outcome.Detail)
	}
	for i, cert := range outcome.Result.VerifiedChain {
		log.Printf("  %d: %s (issuer: %s, expires: %s)",
			i, cert.Subject.CommonName, cert.Issuer.CommonName, cert.NotAfter.Format("2006-01-02"))
	}
	if outcome.Result.OCSPChecked {
		log.Println("  stapled OCSP response evaluated")
	}
}
