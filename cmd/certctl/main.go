package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"certverify.client/internal/config"
	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/repositories"
	"certverify.client/internal/infrastructure/backend"
	"certverify.client/internal/infrastructure/qr"
	"certverify.client/internal/usecases"
	"certverify.client/pkg/crypto"
	"certverify.client/pkg/logger"
)

const usage = `usage: certctl <command> [flags] [args]

commands:
  verify <hash>                      verify a certificate by hash
  verify-blockchain <hash>           check a hash against the contract
  issue -name -course -institution -date -pdf
                                     issue a certificate
  verify-qr <image>                  upload a QR image for verification
  scan <frame files or dirs...>      decode QR frames locally and verify
  revoke <hash>                      revoke a certificate
  list [-page -search -type -status -from -to]
                                     browse certificates
  leaderboard [-limit]               top institutions
  stats <address>                    reward stats for a wallet
  register-wallet [-name] <address>  enrol a wallet for rewards
  hash-password <password>           bcrypt hash for ADMIN_PASSWORD_HASH
  gen-state-key                      random STATE_ENCRYPTION_KEY
`

var errUsage = errors.New("invalid usage")

// certctlGateway is the backend surface the CLI drives
type certctlGateway interface {
	repositories.CertificateGateway
	repositories.RewardsGateway
}

type certctlDeps struct {
	loadEnv     func() error
	loadCfg     func() *config.Config
	initLog     func(env string)
	newGateway  func(cfg *config.Config) certctlGateway
	readFile    func(path string) ([]byte, error)
	openCamera  func(paths ...string) (qr.Camera, error)
	hashPass    func(password string) (string, error)
	genStateKey func() (string, error)
	out         io.Writer
}

func defaultCertctlDeps() certctlDeps {
	return certctlDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		initLog: logger.Init,
		newGateway: func(cfg *config.Config) certctlGateway {
			return backend.NewClient(backend.Config{
				BaseURL: cfg.Backend.URL,
				Timeout: cfg.Backend.Timeout,
			})
		},
		readFile: os.ReadFile,
		openCamera: func(paths ...string) (qr.Camera, error) {
			return qr.NewFileCamera(paths...)
		},
		hashPass:    crypto.HashPassword,
		genStateKey: crypto.GenerateStateKey,
		out:         os.Stdout,
	}
}

// certctl holds the usecases built from configuration
type certctl struct {
	deps         certctlDeps
	cfg          *config.Config
	gateway      certctlGateway
	issuance     *usecases.IssuanceUsecase
	verification *usecases.VerificationUsecase
	certificates *usecases.CertificateUsecase
	rewards      *usecases.RewardsUsecase
}

func newCertctl(deps certctlDeps) *certctl {
	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := deps.loadCfg()
	deps.initLog(cfg.Server.Env)

	gateway := deps.newGateway(cfg)
	return &certctl{
		deps:         deps,
		cfg:          cfg,
		gateway:      gateway,
		issuance:     usecases.NewIssuanceUsecase(gateway, cfg.Server.PublicBaseURL),
		verification: usecases.NewVerificationUsecase(gateway, nil),
		certificates: usecases.NewCertificateUsecase(gateway),
		rewards:      usecases.NewRewardsUsecase(gateway),
	}
}

func (c *certctl) qrUsecase(camera qr.Camera) *usecases.QRUsecase {
	return usecases.NewQRUsecase(c.gateway, c.verification, camera, qr.NewDecoder(), c.cfg.QR.ScanInterval, nil)
}

func runCertctl(ctx context.Context, args []string, deps certctlDeps) error {
	if len(args) == 0 {
		return errUsage
	}
	command, rest := args[0], args[1:]

	// Offline commands need neither configuration nor the backend.
	switch command {
	case "hash-password":
		return runHashPassword(rest, deps)
	case "gen-state-key":
		key, err := deps.genStateKey()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(deps.out, "STATE_ENCRYPTION_KEY=%s\n", key)
		return nil
	case "help", "-h", "--help":
		_, _ = fmt.Fprint(deps.out, usage)
		return nil
	}

	c := newCertctl(deps)
	defer logger.Sync()

	switch command {
	case "verify":
		return c.verify(ctx, rest)
	case "verify-blockchain":
		return c.verifyBlockchain(ctx, rest)
	case "issue":
		return c.issue(ctx, rest)
	case "verify-qr":
		return c.verifyQR(ctx, rest)
	case "scan":
		return c.scan(ctx, rest)
	case "revoke":
		return c.revoke(ctx, rest)
	case "list":
		return c.list(ctx, rest)
	case "leaderboard":
		return c.leaderboard(ctx, rest)
	case "stats":
		return c.stats(ctx, rest)
	case "register-wallet":
		return c.registerWallet(ctx, rest)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

func runHashPassword(args []string, deps certctlDeps) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("%w: hash-password <password>", errUsage)
	}
	hash, err := deps.hashPass(args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(deps.out, "ADMIN_PASSWORD_HASH=%s\n", hash)
	return nil
}

func singleArg(command string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: %s takes exactly one argument", errUsage, command)
	}
	return args[0], nil
}

func (c *certctl) print(v interface{}) error {
	enc := json.NewEncoder(c.deps.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *certctl) printVerification(result *entities.VerificationResult) error {
	_, _ = fmt.Fprintf(c.deps.out, "status: %s\n", result.Status())
	return c.print(result)
}

func (c *certctl) verify(ctx context.Context, args []string) error {
	hash, err := singleArg("verify", args)
	if err != nil {
		return err
	}
	result, err := c.verification.Verify(ctx, hash)
	if err != nil {
		return err
	}
	return c.printVerification(result)
}

func (c *certctl) verifyBlockchain(ctx context.Context, args []string) error {
	hash, err := singleArg("verify-blockchain", args)
	if err != nil {
		return err
	}
	result, err := c.verification.VerifyOnBlockchain(ctx, hash)
	if err != nil {
		return err
	}
	return c.print(result)
}

func (c *certctl) loadUpload(path string) (*entities.UploadFile, error) {
	content, err := c.deps.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &entities.UploadFile{
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(content),
		Content:     content,
	}, nil
}

func (c *certctl) issue(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "student name")
	course := fs.String("course", "", "course")
	institution := fs.String("institution", "", "issuing institution")
	date := fs.String("date", "", "issue date (YYYY-MM-DD)")
	pdfPath := fs.String("pdf", "", "certificate PDF")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	form := usecases.NewIssuanceForm(c.issuance)
	form.Update(func(req *entities.IssuanceRequest) {
		req.StudentName = *name
		req.Course = *course
		req.Institution = *institution
		req.IssueDate = *date
	})
	if *pdfPath != "" {
		file, err := c.loadUpload(*pdfPath)
		if err != nil {
			return err
		}
		form.AttachPDF(file)
	}

	result, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	if result.Warning.Valid {
		_, _ = fmt.Fprintf(c.deps.out, "warning: %s\n", result.Warning.String)
	}
	return c.print(result)
}

func (c *certctl) verifyQR(ctx context.Context, args []string) error {
	path, err := singleArg("verify-qr", args)
	if err != nil {
		return err
	}
	file, err := c.loadUpload(path)
	if err != nil {
		return err
	}
	result, err := c.qrUsecase(nil).VerifyUpload(ctx, file)
	if err != nil {
		return err
	}
	return c.printVerification(result)
}

func (c *certctl) scan(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: scan needs at least one frame file or directory", errUsage)
	}
	camera, err := c.deps.openCamera(args...)
	if err != nil {
		return domainerrors.DecodeFailure(usecases.MsgCameraUnavailable)
	}
	result, err := c.qrUsecase(camera).Scan(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.deps.out, "scanned: %s\n", result.CertHash)
	return c.printVerification(result.Verification)
}

func (c *certctl) revoke(ctx context.Context, args []string) error {
	hash, err := singleArg("revoke", args)
	if err != nil {
		return err
	}
	result, err := c.certificates.Revoke(ctx, hash)
	if err != nil {
		return err
	}
	return c.print(result)
}

func (c *certctl) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var filter entities.CertificateFilter
	fs.IntVar(&filter.Page, "page", 1, "page number")
	fs.StringVar(&filter.Search, "search", "", "search text")
	fs.StringVar(&filter.Type, "type", "", "search field")
	fs.StringVar(&filter.Status, "status", "", "active or revoked")
	fs.StringVar(&filter.DateFrom, "from", "", "issued on or after (YYYY-MM-DD)")
	fs.StringVar(&filter.DateTo, "to", "", "issued on or before (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	page, err := c.certificates.List(ctx, filter)
	if err != nil {
		return err
	}
	return c.print(page)
}

func (c *certctl) leaderboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("limit", entities.DefaultLeaderboardLimit, "number of institutions")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	entries, err := c.rewards.Leaderboard(ctx, *limit)
	if err != nil {
		return err
	}
	return c.print(entries)
}

func (c *certctl) stats(ctx context.Context, args []string) error {
	address, err := singleArg("stats", args)
	if err != nil {
		return err
	}
	stats, err := c.rewards.InstitutionStats(ctx, address)
	if err != nil {
		return err
	}
	return c.print(stats)
}

func (c *certctl) registerWallet(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register-wallet", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "institution name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	address, err := singleArg("register-wallet", fs.Args())
	if err != nil {
		return err
	}

	result, err := c.rewards.RegisterWallet(ctx, entities.RegisterWalletInput{
		WalletAddress:   address,
		InstitutionName: *name,
	})
	if err != nil {
		return err
	}
	return c.print(result)
}

func main() {
	err := runCertctl(context.Background(), os.Args[1:], defaultCertctlDeps())
	if err == nil {
		return
	}
	if errors.Is(err, errUsage) {
		fmt.Fprint(os.Stderr, usage)
	}
	log.Fatal(domainerrors.Message(err, ""))
}
