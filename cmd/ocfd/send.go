package main

import (
	"fmt"
	"strings"

	gosc "github.com/hypebeast/go-osc/osc"
	"github.com/spf13/cobra"

	"github.com/ocfkit/ocf/internal/transport/osc"
)

var (
	sendHost string
	sendPort int
)

var sendCmd = &cobra.Command{
	Use:   "send ADDRESS [ARG...]",
	Short: "Send one OSC message",
	Long: `Send one OSC message to a running engine. Integer arguments are sent as
int32, other numbers as float32, true/false as booleans and everything else
as strings.

  ocfd send /ocf/lamp/intensity 0.5
  ocfd send /ocf/lamp/LoadWithName evening 2 linear`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendHost, "host", "127.0.0.1", "engine host")
	sendCmd.Flags().IntVarP(&sendPort, "port", "p", 6001, "engine OSC port")
}

func buildMessage(args []string) (*gosc.Message, error) {
	address := args[0]
	if !strings.HasPrefix(address, "/") {
		return nil, fmt.Errorf("address %q must start with /", address)
	}
	msg := gosc.NewMessage(address)
	for _, a := range args[1:] {
		msg.Append(osc.ParseArgument(a))
	}
	return msg, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	msg, err := buildMessage(args)
	if err != nil {
		return err
	}
	if err = gosc.NewClient(sendHost, sendPort).Send(msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Address, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", msg.String())
	return nil
}
