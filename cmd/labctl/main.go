// Command labctl validates and lists reports against the report API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/portal"
	"github.com/labmoura/laudos/internal/repository"
)

const usage = `usage: labctl [flags] <command> [args]

commands:
  validate <id>              look up a report as an anonymous visitor
  login-admin                sign in as admin (-email, -password)
  login-client               sign in as client (-email)
  logout                     forget the stored session
  client-reports [email]     list a client's reports
  reports                    list all reports (admin)
  clients                    list all clients (admin)

flags:
`

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("labctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	apiURL := fs.String("api", envOr("LABMOURA_API_URL", "http://localhost:8080/api"), "report API base URL")
	timeout := fs.Duration("timeout", portal.DefaultTimeout, "per-request timeout")
	tokenFile := fs.String("token-file", defaultTokenFile(), "where the session token is kept")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	store := portal.NewHTTPStore(*apiURL, portal.WithTokenStore(&portal.FileTokenStore{Path: *tokenFile}))
	p := portal.New(store, portal.WithTimeout(*timeout), portal.WithRedirect(func(string) {
		fmt.Fprintln(stderr, "session expired, run labctl login-admin again")
	}))

	ctx := context.Background()
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd != "validate" && cmd != "login-admin" && cmd != "login-client" && cmd != "logout" {
		if _, err := p.Gate().Resume(ctx); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
	}

	var err error
	switch cmd {
	case "validate":
		err = validateReport(ctx, p, rest, stdout)
	case "login-admin":
		err = loginAdmin(ctx, p, rest, stdout)
	case "login-client":
		err = loginClient(ctx, p, rest, stdout)
	case "logout":
		p.Gate().Logout()
	case "client-reports":
		err = clientReports(ctx, p, rest, stdout)
	case "reports":
		err = listReports(ctx, p, rest, stdout)
	case "clients":
		err = listClients(ctx, p, stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", describe(err))
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".labctl-token"
	}
	return filepath.Join(dir, "labctl", "token")
}

// describe turns portal errors into what a user should do next.
func describe(err error) string {
	var verr *portal.ValidationError
	switch {
	case errors.Is(err, portal.ErrNotFound):
		return "not found"
	case errors.Is(err, portal.ErrForbidden):
		return "not allowed, sign in with an account that may do this"
	case errors.Is(err, portal.ErrTimeout), portal.IsRetryable(err):
		return fmt.Sprintf("%v (try again)", err)
	case errors.As(err, &verr):
		return verr.Error()
	}
	return err.Error()
}

func validateReport(ctx context.Context, p *portal.Portal, args []string, w io.Writer) error {
	if len(args) != 1 {
		return errors.New("validate takes exactly one report id")
	}
	r, err := p.GetPublicReport(ctx, args[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Código\t%s\n", r.Code)
	fmt.Fprintf(tw, "Situação\t%s\n", r.Status.Label())
	fmt.Fprintf(tw, "Análise\t%s\n", r.AnalysisType.Label())
	if r.Client != nil {
		fmt.Fprintf(tw, "Cliente\t%s\n", r.Client.Name)
	}
	fmt.Fprintf(tw, "Coleta\t%s\n", r.SampleDate)
	fmt.Fprintf(tw, "Emissão\t%s\n", r.IssueDate)
	fmt.Fprintf(tw, "Responsável\t%s (%s)\n", r.ResponsibleTechnician, r.TechnicianRegistration)
	if r.SignedPDFURL != "" {
		fmt.Fprintf(tw, "PDF\t%s\n", r.SignedPDFURL)
	}
	return tw.Flush()
}

func loginAdmin(ctx context.Context, p *portal.Portal, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("login-admin", flag.ContinueOnError)
	email := fs.String("email", os.Getenv("LABMOURA_ADMIN_EMAIL"), "admin email")
	password := fs.String("password", os.Getenv("LABMOURA_ADMIN_PASSWORD"), "admin password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	actor, err := p.Gate().LoginAdmin(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "signed in as %s (admin)\n", actor.Email)
	return nil
}

func loginClient(ctx context.Context, p *portal.Portal, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("login-client", flag.ContinueOnError)
	email := fs.String("email", "", "client email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	actor, err := p.Gate().LoginClient(ctx, *email)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "signed in as %s (%s)\n", actor.Email, actor.Name)
	return nil
}

func clientReports(ctx context.Context, p *portal.Portal, args []string, w io.Writer) error {
	email := ""
	if len(args) > 0 {
		email = args[0]
	}
	reports, err := p.GetClientReports(ctx, email)
	if err != nil {
		return err
	}
	return printReports(w, reports)
}

func listReports(ctx context.Context, p *portal.Portal, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("reports", flag.ContinueOnError)
	from := fs.String("from", "", "first issue date, YYYY-MM-DD")
	to := fs.String("to", "", "last issue date, YYYY-MM-DD")
	bySample := fs.Bool("by-sample-date", false, "apply -from/-to to the sample date")
	status := fs.String("status", "", "valido, substituido, cancelado or em_analise")
	typ := fs.String("type", "", "agua, solo or ambiental")
	search := fs.String("search", "", "code or client name")
	page := fs.Int("page", 0, "page number")
	size := fs.Int("size", 0, "page size, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := portal.ReportFilter{
		Status:       models.ReportStatus(*status),
		AnalysisType: models.AnalysisType(*typ),
		Search:       *search,
		Page:         *page,
		PageSize:     *size,
	}
	if *bySample {
		f.DateField = repository.DateFieldSample
	}
	var err error
	if *from != "" {
		if f.From, err = models.ParseDate(*from); err != nil {
			return err
		}
	}
	if *to != "" {
		if f.To, err = models.ParseDate(*to); err != nil {
			return err
		}
	}

	res, err := p.GetAllReports(ctx, f)
	if err != nil {
		return err
	}
	if err := printReports(w, res.Reports); err != nil {
		return err
	}
	if res.PageSize > 0 {
		fmt.Fprintf(w, "page %d of %d, %d reports\n", res.Page, res.TotalPages, res.Total)
	}
	return nil
}

func printReports(w io.Writer, reports []models.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCÓDIGO\tCLIENTE\tANÁLISE\tEMISSÃO\tSITUAÇÃO")
	for _, r := range reports {
		client := ""
		if r.Client != nil {
			client = r.Client.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Code, client, r.AnalysisType.Label(), r.IssueDate, r.Status.Label())
	}
	return tw.Flush()
}

func listClients(ctx context.Context, p *portal.Portal, w io.Writer) error {
	clients, err := p.GetAllClients(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOME\tEMAIL\tEMPRESA\tDESDE")
	for _, c := range clients {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Company, c.CreatedAt.Format(time.DateOnly))
	}
	return tw.Flush()
}
