package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"

	"github.com/hashicorp/go-hclog"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sys/unix"
	"lab47.dev/svnadmin/pkg/progress"
)

type logOptions struct {
	Verbose bool `short:"v" long:"verbose" description:"log debug output"`
	Trace   bool `long:"trace" description:"log in trace mode"`
}

type Cmd struct {
	syn, name string
	f         reflect.Value

	opts    reflect.Value
	logOpts logOptions
	parser  *flags.Parser
}

// New wraps f, a func(context.Context, struct{...}) error, as a cli.Command.
// The struct's tags declare the command's flags.
func New(name, syn string, f interface{}) *Cmd {
	rv := reflect.ValueOf(f)

	if rv.Kind() != reflect.Func {
		panic("must pass a function")
	}

	rt := rv.Type()

	if rt.NumIn() != 2 {
		panic("must provide two arguments only")
	}

	if rt.NumOut() != 1 {
		panic("must return one argument only")
	}

	in := rt.In(1)

	if in.Kind() != reflect.Struct {
		panic("argument must be a struct")
	}

	sv := reflect.New(in)

	c := &Cmd{
		syn:  syn,
		name: name,
		f:    rv,
		opts: sv,
	}

	parser := flags.NewNamedParser(name, flags.Default)
	parser.ShortDescription = syn
	parser.LongDescription = syn

	_, err := parser.AddGroup("Application Options", "", sv.Interface())
	if err != nil {
		panic(err)
	}

	_, err = parser.AddGroup("Logging Options", "", &c.logOpts)
	if err != nil {
		panic(err)
	}

	c.parser = parser

	return c
}

func (w *Cmd) Help() string {
	var buf bytes.Buffer
	w.parser.WriteHelp(&buf)
	return buf.String()
}

func (w *Cmd) Synopsis() string {
	return w.syn
}

func (w *Cmd) Run(args []string) int {
	_, err := w.parser.ParseArgs(args)
	if err != nil {
		return 1
	}

	level := hclog.Info

	switch {
	case w.logOpts.Trace:
		level = hclog.Trace
	case w.logOpts.Verbose:
		level = hclog.Debug
	}

	L := hclog.New(&hclog.LoggerOptions{
		Name:   "svnadm",
		Level:  level,
		Output: os.Stderr,
	})

	hclog.SetDefault(L)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelOnSignal(cancel, os.Interrupt, unix.SIGQUIT, unix.SIGTERM)

	ctx = progress.Open(ctx, os.Stderr)

	rets := w.f.Call([]reflect.Value{reflect.ValueOf(ctx), w.opts.Elem()})

	if err, ok := rets[0].Interface().(error); ok {
		if err != nil {
			if level <= hclog.Debug {
				fmt.Fprintf(os.Stderr, "! Error: %+v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "! Error: %v\n", err)
			}
			return 1
		}
	}

	return 0
}

func cancelOnSignal(cancel func(), signals ...os.Signal) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, signals...)

	go func() {
		for range c {
			cancel()
		}
	}()
}
