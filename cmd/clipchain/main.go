package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dudk/clipchain/log"
)

type config struct {
	args []string
}

type command interface {
	Name() string
	Help() string
	Run() error
	Register(*flag.FlagSet)
}

func (config *config) run() int {
	cmdName, args := parseArgs(config.args)
	if cmdName == "" {
		printUsage()
		return errorExitCode
	}

	for _, cmd := range commands {
		if cmd.Name() == cmdName {
			flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
			flags.SetOutput(stdout)
			cmd.Register(flags)
			if err := flags.Parse(args); err != nil {
				return errorExitCode
			}
			if err := cmd.Run(); err != nil {
				fmt.Fprintf(stdout, "Command failed: %v\n", err)
				return errorExitCode
			}
			return successExitCode
		}
	}
	printUsage()
	return errorExitCode
}

var (
	successExitCode = 0
	errorExitCode   = 1
	commands        []command
	stdout          io.Writer = os.Stdout
	logger                    = log.GetLogger()
)

func main() {
	if err := loadEnv(".env"); err != nil {
		fmt.Fprintf(stdout, "Failed to load environment: %v\n", err)
		os.Exit(errorExitCode)
	}
	commands = []command{&renderCommand{}, &infoCommand{}}
	c := config{
		args: os.Args,
	}
	os.Exit(c.run())
}

// loadEnv loads defaults from env file if it exists. Variables that are
// already set are not overridden.
func loadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if debug, err := strconv.ParseBool(os.Getenv(log.DebugEnv)); err == nil && debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return nil
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func printUsage() {
	fmt.Fprintln(stdout, "Clipchain renders audio clips through a supply chain")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage: clipchain <command>")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(stdout, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}
