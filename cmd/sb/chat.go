package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zulandar/switchboard/internal/engine"
	"github.com/zulandar/switchboard/internal/stage"
)

func newChatCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive support conversation",
		Long:  "Opens a terminal conversation with the support assistant. Type your messages; say goodbye (or press Ctrl-D) to end.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchboard config file")
	return cmd
}

func runChat(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	router, _, _, err := buildEngine(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	session := engine.NewSession()
	fmt.Fprintf(out, "Switchboard support (session %s). How can I help?\n", session.ID)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprintf(out, "[%s] you: ", session.Stage)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		reply, err := router.HandleTurn(cmd.Context(), session, text)
		if err != nil {
			return fmt.Errorf("handle turn: %w", err)
		}
		fmt.Fprintf(out, "assistant: %s\n", reply)

		if session.Stage == stage.Terminated {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
