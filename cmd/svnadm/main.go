package main

import (
	"log"
	"os"

	"github.com/mitchellh/cli"
	"lab47.dev/svnadmin/pkg/cmd"
)

func main() {
	c := cli.NewCLI("svnadm", "0.3.0")
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"list": func() (cli.Command, error) {
			return cmd.New(
				"list",
				"List the repositories under the parent path",
				listF,
			), nil
		},
		"add": func() (cli.Command, error) {
			return cmd.New(
				"add",
				"Create a repository and register it",
				addF,
			), nil
		},
		"remove": func() (cli.Command, error) {
			return cmd.New(
				"remove",
				"Delete repositories and unregister them",
				removeF,
			), nil
		},
		"passwd": func() (cli.Command, error) {
			return cmd.New(
				"passwd",
				"Set the password of a user in the password file",
				passwdF,
			), nil
		},
		"deluser": func() (cli.Command, error) {
			return cmd.New(
				"deluser",
				"Delete a user from the password file",
				deluserF,
			), nil
		},
		"event": func() (cli.Command, error) {
			return cmd.New(
				"event",
				"Replicate an account change event into the password file",
				eventF,
			), nil
		},
		"authz": func() (cli.Command, error) {
			return cmd.New(
				"authz",
				"Show or replace the authz file",
				authzF,
			), nil
		},
		"config": func() (cli.Command, error) {
			return cmd.New(
				"config",
				"Show or change settings",
				configF,
			), nil
		},
		"debug": func() (cli.Command, error) {
			return cmd.New(
				"debug",
				"Dump the effective configuration",
				debugF,
			), nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}
