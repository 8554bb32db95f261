/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	reqContext "context"
	"encoding/json"
	"io"
	"time"

	"github.com/kawaya-ledger/fabric-api/pkg/client/channel"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
	"github.com/kawaya-ledger/fabric-api/pkg/rest"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type callFlags struct {
	chaincode string
	function  string
	args      string
	timeout   time.Duration
}

func (f *callFlags) attach(flags *pflag.FlagSet) {
	flags.StringVarP(&f.chaincode, "chaincode", "n", "", "chaincode name")
	flags.StringVarP(&f.function, "function", "f", "", "chaincode function")
	flags.StringVarP(&f.args, "args", "a", "", "comma separated chaincode arguments")
}

func (f *callFlags) request() (channel.Request, error) {
	if f.chaincode == "" || f.function == "" {
		return channel.Request{}, errors.New("the required parameters 'chaincode' and 'function' must be set")
	}
	return channel.Request{ChaincodeID: f.chaincode, Fcn: f.function, Args: rest.SplitArgs(f.args)}, nil
}

func invokeCmd() *cobra.Command {
	flags := &callFlags{}
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Submit a transaction and wait for its commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := flags.request()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			s, err := newService(commandContext(cmd), cmd)
			if err != nil {
				return err
			}
			defer s.close()

			var opts []channel.RequestOption
			if flags.timeout > 0 {
				opts = append(opts, channel.WithTimeout(flags.timeout))
			}
			outcome, err := s.client.Invoke(commandContext(cmd), request, opts...)
			if err != nil {
				return err
			}
			if !outcome.Successful() {
				if err := printJSON(cmd.OutOrStdout(), &rest.FailedOutcome{Status: outcome.Status, Message: outcome.Message}); err != nil {
					return err
				}
				return errors.Errorf("transaction %s was not committed: %s", outcome.TransactionID, describe(outcome))
			}
			return printJSON(cmd.OutOrStdout(), outcome.Payload)
		},
	}
	flags.attach(cmd.Flags())
	cmd.Flags().DurationVarP(&flags.timeout, "timeout", "t", 0, "commit wait, overrides fabric.timeout")
	return cmd
}

func queryCmd() *cobra.Command {
	flags := &callFlags{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Evaluate a read-only chaincode function",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := flags.request()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			s, err := newService(commandContext(cmd), cmd)
			if err != nil {
				return err
			}
			defer s.close()

			result, err := s.client.Query(commandContext(cmd), request)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	flags.attach(cmd.Flags())
	return cmd
}

func commandContext(cmd *cobra.Command) reqContext.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return reqContext.Background()
}

// describe names the order and commit status of an outcome
func describe(outcome *ledger.Outcome) string {
	order, commit := "none", "none"
	if outcome.Order != nil {
		order = string(outcome.Order.Status)
	}
	if outcome.Commit != nil {
		commit = outcome.Commit.EventStatus
	}
	return "order status " + order + ", commit status " + commit
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding result failed")
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
