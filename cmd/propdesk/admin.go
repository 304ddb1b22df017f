package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/Strob0t/PropDesk/internal/adapter/postgres"
	"github.com/Strob0t/PropDesk/internal/config"
	"github.com/Strob0t/PropDesk/internal/domain/tenant"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/resilience"
	"github.com/Strob0t/PropDesk/internal/service"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

// runAdmin dispatches admin subcommands (create-tenant, create-admin, list-tenants).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-tenant":
		return runAdminCreateTenant(args[1:])
	case "create-admin":
		return runAdminCreateAdmin(args[1:])
	case "list-tenants":
		return runAdminListTenants(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: propdesk admin <command> [options]

Commands:
  create-tenant    Create an organization tenant
  create-admin     Create an administrator account
  list-tenants     List all tenants
  help             Show this help message

Examples:
  propdesk admin create-tenant --name "Kordon Estates" --domain kordon
  propdesk admin create-admin --email root@propdesk.local --name "Root"
  propdesk admin create-admin --email ops@kordon.test --name "Ops" --tenant <tenant-id>
  propdesk admin list-tenants
`)
}

type adminDeps struct {
	tenants *service.TenantService
	users   *service.UserService
}

func loadAdminDeps() (*adminDeps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.Driver != "postgres" {
		return nil, nil, fmt.Errorf("admin commands need postgres storage, have %q", cfg.Storage.Driver)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	tables := postgres.NewTables(pool)
	auditSvc := service.NewAuditService(tables.AuditLogs, nil, nil)
	deps := &service.Deps{
		Tables:    tables,
		Validator: tenancy.NewValidator(nil, auditSvc),
		Audit:     auditSvc,
	}
	authSvc := service.NewAuthService(tables.Users, &cfg.Auth,
		service.WithHashPool(resilience.NewPool(cfg.Auth.MaxConcurrentHash)),
	)
	return &adminDeps{
		tenants: service.NewTenantService(deps, nil, nil),
		users:   service.NewUserService(deps, authSvc),
	}, pool.Close, nil
}

// operatorContext runs service calls as a platform administrator with no
// account of its own, so audit entries carry no user id.
func operatorContext() context.Context {
	rc := tenancy.NewRequestContext(&user.Principal{Role: user.RoleAdmin})
	return tenancy.WithRequestContext(context.Background(), rc)
}

func runAdminCreateTenant(args []string) error {
	fs := flag.NewFlagSet("create-tenant", flag.ContinueOnError)
	name := fs.String("name", "", "tenant name (required)")
	domainName := fs.String("domain", "", "tenant domain or subdomain")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	req := &tenant.CreateRequest{Name: *name}
	if *domainName != "" {
		req.Domain = domainName
	}
	t, err := deps.tenants.Create(operatorContext(), req)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%s)\n", t.Name, t.ID)
	return nil
}

func runAdminCreateAdmin(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	email := fs.String("email", "", "user email address (required)")
	name := fs.String("name", "", "user display name (required)")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	tenantID := fs.String("tenant", "", "home tenant id (platform administrator when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if pass != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	req := &user.CreateRequest{
		Email:    *email,
		Name:     *name,
		Password: pass,
		Role:     user.RoleAdmin,
	}
	if *tenantID != "" {
		req.TenantID = tenantID
	}
	u, err := deps.users.Create(operatorContext(), req)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Administrator created: %s (id=%s)\n", u.Email, u.ID)
	return nil
}

func runAdminListTenants(args []string) error {
	fs := flag.NewFlagSet("list-tenants", flag.ContinueOnError)
	search := fs.String("search", "", "filter by name or domain")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	tenants, err := deps.tenants.List(operatorContext(), tenant.ListFilter{Search: *search, Limit: 500})
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	if len(tenants) == 0 {
		fmt.Println("No tenants found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tDOMAIN\tACTIVE\tCREATED")
	for i := range tenants {
		t := &tenants[i]
		domainName := "-"
		if t.Domain != nil {
			domainName = *t.Domain
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			t.ID, t.Name, domainName, t.IsActive, t.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)                         // newline after password input
	if err != nil {
		return "", err
	}
	return string(b), nil
}
