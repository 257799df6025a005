package main

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudfpga/cfbuild/internal/domain-adapters/gateways"
	orchestrators "github.com/cloudfpga/cfbuild/internal/domain-orchestrators"
	"github.com/cloudfpga/cfbuild/internal/domain/entities"
	"github.com/cloudfpga/cfbuild/internal/domain/interfaces"
	"github.com/cloudfpga/cfbuild/internal/domain/services"
	"github.com/cloudfpga/cfbuild/internal/external-adapters/gpg"
	"github.com/cloudfpga/cfbuild/internal/external-adapters/jsonstore"
	"github.com/cloudfpga/cfbuild/internal/external-adapters/schema"
	"github.com/cloudfpga/cfbuild/internal/external-adapters/yaml"
	"github.com/cloudfpga/cfbuild/internal/logging"
)

// debugRegistryURL replaces the CFRM address in the CFP_DEBUGGING flow
const debugRegistryURL = "localhost:8080"

type options struct {
	root      string
	logLevel  string
	logFormat string
	signer    string
}

// app carries the resolved project and configuration of one invocation
type app struct {
	opts    options
	locator *gateways.ProjectLocator
	layout  entities.ProjectLayout
	config  entities.Config
	logger  interfaces.Logger
}

// load resolves the project root, cFp.json and cfbuild.yaml, then
// configures logging
func (a *app) load(ctx context.Context, stderr io.Writer) error {
	a.locator = gateways.NewProjectLocator()

	root, debug, err := a.locator.ResolveRoot(a.opts.root)
	if err != nil {
		return err
	}

	project, err := jsonstore.NewProjectRepository().LoadProject(ctx, root)
	if err != nil {
		return err
	}

	cfg, err := yaml.NewConfigParser().LoadConfig(root)
	if err != nil {
		return err
	}
	if a.opts.logLevel != "" {
		cfg.Log.Level = a.opts.logLevel
	}
	if a.opts.logFormat != "" {
		cfg.Log.Format = a.opts.logFormat
	}
	if a.opts.signer != "" {
		cfg.Signing.SignerPath = a.opts.signer
	}
	if debug {
		cfg.Log.Level = "debug"
		cfg.Registry.URL = debugRegistryURL
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("%w: %v", entities.ErrUsage, err)
	}
	logging.Init(level, cfg.Log.Format, stderr)

	a.layout = entities.NewProjectLayout(*project)
	a.layout.Debug = debug
	a.config = cfg
	a.logger = logging.New("cfbuild").With(interfaces.F("module", project.Module))

	if debug {
		a.logger.Debug("debugging flow active", interfaces.F("root", root))
	}
	return nil
}

// signing wires the signing orchestrator from the loaded configuration
func (a *app) signing() (*orchestrators.SigningOrchestrator, error) {
	signerPath, err := a.locator.SignerPath(a.config.Signing.SignerPath)
	if err != nil {
		return nil, err
	}

	validator, err := schema.NewRecordValidator()
	if err != nil {
		return nil, err
	}

	deps := orchestrators.SigningDependencies{
		Locator:    a.locator,
		Hasher:     gateways.NewContentHasher(),
		Reports:    gateways.NewReportParser(),
		Locker:     gateways.NewFileLocker(a.config.Signing.LockTimeout),
		Metadata:   jsonstore.NewMetadataRepository(),
		Records:    jsonstore.NewRecordRepository(),
		Signatures: services.NewSignatureService(),
		Validator:  validator,
		Logger:     a.logger,
	}
	config := orchestrators.SigningOrchestratorConfig{
		Scheme:     a.config.Signing.Scheme,
		SignerPath: signerPath,
	}

	if a.config.Signing.GPGKey != "" || a.config.Signing.GPGPublicKey != "" {
		signer := gpg.NewSigner()
		if key := a.config.Signing.GPGKey; key != "" {
			if err := signer.ImportKeyFromFile(key); err != nil {
				return nil, fmt.Errorf("signing.gpg_key: %w", err)
			}
			if err := signer.CheckSigningKey(); err != nil {
				return nil, fmt.Errorf("signing.gpg_key: %w", err)
			}
			config.SignRecords = true
		}
		if key := a.config.Signing.GPGPublicKey; key != "" {
			if err := signer.ImportKeyFromFile(key); err != nil {
				return nil, fmt.Errorf("signing.gpg_public_key: %w", err)
			}
		}
		deps.RecordSigner = signer
		config.VerifyRecords = signer.KeyringSize() > 0
	}

	a.logger.Debug("signer identity", interfaces.F("path", signerPath), interfaces.F("scheme", config.Scheme))
	return orchestrators.NewSigningOrchestrator(deps, config), nil
}

// shell wires the base design update workflow
func (a *app) shell() *orchestrators.ShellOrchestrator {
	registry := gateways.NewShellRegistry(gateways.ShellRegistryConfig{
		URL:     a.config.Registry.URL,
		Timeout: a.config.Registry.Timeout,
		Retries: a.config.Registry.Retries,
		Logger:  a.logger,
	})

	return orchestrators.NewShellOrchestrator(
		jsonstore.NewCredentialsRepository(),
		jsonstore.NewMetadataRepository(),
		registry,
		gateways.NewFileLocker(a.config.Signing.LockTimeout),
		a.locator,
		gateways.NewAtomicWriter(),
		a.logger,
	)
}

