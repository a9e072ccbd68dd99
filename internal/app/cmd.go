package app

import (
	"errors"
	"fmt"
	"slices"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	CommandServe   Command = "serve"
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はdistrolessイメージのHEALTHCHECKから呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

// migrateの操作。省略時はup。
const (
	migrateUp     = "up"
	migrateDown   = "down"
	migrateStatus = "status"
)

var commands = []Command{CommandServe, CommandMigrate, CommandHealthcheck}

// Invocation は解析済みのコマンドライン。
type Invocation struct {
	Command Command
	// Action はmigrateの操作。それ以外のコマンドでは空。
	Action string
}

// ParseCommand はos.Args[1:]を解析する。引数なしはserveとみなす。
func ParseCommand(args []string) (Invocation, error) {
	if len(args) == 0 {
		return Invocation{Command: CommandServe}, nil
	}

	cmd := Command(args[0])
	if !slices.Contains(commands, cmd) {
		return Invocation{}, fmt.Errorf("unknown command %q (want one of %v)", args[0], commands)
	}
	rest := args[1:]

	if cmd != CommandMigrate {
		if len(rest) > 0 {
			return Invocation{}, fmt.Errorf("%s takes no arguments", cmd)
		}
		return Invocation{Command: cmd}, nil
	}

	switch {
	case len(rest) == 0:
		return Invocation{Command: cmd, Action: migrateUp}, nil
	case len(rest) == 1 && slices.Contains([]string{migrateUp, migrateDown, migrateStatus}, rest[0]):
		return Invocation{Command: cmd, Action: rest[0]}, nil
	default:
		return Invocation{}, errors.New("usage: migrate [up|down|status]")
	}
}
