package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"lab47.dev/svnadmin/pkg/authz"
	"lab47.dev/svnadmin/pkg/config"
)

func authzF(ctx context.Context, opts struct {
	Replace string `short:"r" long:"replace" description:"replace the authz file with the content of this file, - for stdin"`
	Check   bool   `long:"check" description:"only validate the replacement"`
}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	f, err := authz.Open(cfg.Trac.AuthzFile)
	if err != nil {
		return err
	}

	if opts.Replace == "" {
		text, err := f.Read()
		if err != nil {
			return err
		}

		fmt.Print(text)
		return nil
	}

	var data []byte

	if opts.Replace == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(opts.Replace)
	}

	if err != nil {
		return errors.Wrapf(err, "reading replacement")
	}

	if opts.Check {
		return authz.Validate(authz.Normalize(string(data)))
	}

	err = f.Write(string(data))
	if err != nil {
		return err
	}

	fmt.Println("Your changes have been saved.")

	return nil
}

func configF(ctx context.Context, opts struct {
	ParentPath string `long:"parent-path" description:"directory holding the repositories"`
	Client     string `long:"client" description:"svn client executable"`
	Admin      string `long:"admin" description:"svnadmin executable"`
	HooksPath  string `long:"hooks-path" description:"directory of hook templates"`
}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	changed, err := cfg.Update(config.Settings{
		ParentPath:        opts.ParentPath,
		SvnClientLocation: opts.Client,
		SvnAdminLocation:  opts.Admin,
		HooksPath:         opts.HooksPath,
	})
	if err != nil {
		return err
	}

	if changed {
		err = cfg.Save()
		if err != nil {
			return err
		}

		fmt.Println("The settings have been saved.")
	}

	fmt.Printf("Config File: %s\n", cfg.Path())
	fmt.Printf("Parent Path: %s\n", cfg.SvnAdmin.ParentPath)
	fmt.Printf("Svn Client: %s\n", cfg.SvnAdmin.SvnClientLocation)
	fmt.Printf("Svnadmin: %s\n", cfg.SvnAdmin.SvnAdminLocation)
	fmt.Printf("Hooks Path: %s\n", cfg.SvnAdmin.HooksPath)

	return nil
}

func debugF(ctx context.Context, opts struct{}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	spew.Dump(cfg)

	return nil
}
