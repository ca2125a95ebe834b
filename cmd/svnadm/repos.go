package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"lab47.dev/svnadmin/pkg/admin"
	"lab47.dev/svnadmin/pkg/config"
	"lab47.dev/svnadmin/pkg/fileutils"
	"lab47.dev/svnadmin/pkg/humanize"
	"lab47.dev/svnadmin/pkg/registrar"
	"lab47.dev/svnadmin/pkg/svn"
)

func openService(cfg *config.Config) *admin.Service {
	L := hclog.L()

	var reg registrar.Registrar = registrar.Nop{}

	if cfg.Trac.Env != "" {
		ta := &registrar.TracAdmin{
			Path: cfg.Trac.AdminLocation,
			Env:  cfg.Trac.Env,
		}
		ta.SetLogger(L.Named("trac"))

		reg = ta
	}

	r := svn.NewRegistry(cfg.RegistryOptions(), reg)
	r.SetLogger(L.Named("registry"))

	s := admin.NewService(admin.Options{
		ParentPath:      cfg.SvnAdmin.ParentPath,
		URLPrefix:       cfg.SvnAdmin.ReposURLPrefix,
		AllowedPrefixes: cfg.VersionControl.AllowedRepositoryDirPrefixes,
	}, r, reg)
	s.SetLogger(L)

	return s
}

func loadConfigured() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load configuration")
	}

	if !cfg.Configured() {
		return nil, errors.Wrapf(admin.ErrNotConfigured, "run `svnadm config` (config file: %s)", cfg.Path())
	}

	return cfg, nil
}

func listF(ctx context.Context, opts struct {
	Usage bool `short:"u" long:"usage" description:"show the disk usage of each repository"`
}) error {
	cfg, err := loadConfigured()
	if err != nil {
		return err
	}

	repos, err := openService(cfg).Repositories(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 4, 2, 1, ' ', 0)
	defer tw.Flush()

	if opts.Usage {
		fmt.Fprintln(tw, "NAME\tREV\tSIZE\tDIRECTORY\t")
	} else {
		fmt.Fprintln(tw, "NAME\tREV\tDIRECTORY\t")
	}

	for _, repo := range repos {
		rev := repo.DisplayRevision()
		if !repo.Verified {
			rev += "!"
		}

		if opts.Usage {
			total, err := fileutils.DiskUsage(repo.Directory)
			if err != nil {
				return err
			}

			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", repo.Name, rev, humanize.Bytes(total), repo.Directory)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", repo.Name, rev, repo.Directory)
		}
	}

	return nil
}

func addF(ctx context.Context, opts struct {
	Pos struct {
		Name string `positional-arg-name:"name" required:"yes"`
	} `positional-args:"yes"`
}) error {
	cfg, err := loadConfigured()
	if err != nil {
		return err
	}

	notices, err := openService(cfg).AddRepository(ctx, opts.Pos.Name)
	if err != nil {
		return err
	}

	for _, n := range notices {
		fmt.Println(n)
	}

	return nil
}

func removeF(ctx context.Context, opts struct {
	Pos struct {
		Names []string `positional-arg-name:"name"`
	} `positional-args:"yes"`
}) error {
	cfg, err := loadConfigured()
	if err != nil {
		return err
	}

	err = openService(cfg).RemoveRepositories(ctx, opts.Pos.Names...)
	if err != nil {
		return err
	}

	fmt.Println("The selected repositories have been removed.")

	return nil
}
