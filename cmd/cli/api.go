package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iho/mutledger/internal/adapter/http/dto"
)

var errMissingToken = errors.New("a bearer token is required (--token or MUTLEDGER_TOKEN)")

// call sends an authenticated JSON request and decodes the response into out.
func (a *app) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if a.token == "" {
		return errMissingToken
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	target := strings.TrimRight(a.baseURL, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
			}
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func entriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Ledger entry operations",
	}

	var (
		startDate, endDate, status, ownerID string
		asJSON                              bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List visible entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			for k, v := range map[string]string{
				"startDate": startDate,
				"endDate":   endDate,
				"status":    status,
				"ownerId":   ownerID,
			} {
				if v != "" {
					query.Set(k, v)
				}
			}

			var entries []dto.EntryResponse
			if err := a.call(cmd.Context(), http.MethodGet, "/api/v1/entries", query, nil, &entries); err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			return printEntries(cmd.OutOrStdout(), entries)
		},
	}
	listCmd.Flags().StringVar(&startDate, "start", "", "First day (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&endDate, "end", "", "Last day (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&status, "status", "", "PENDING, APPROVED or REJECTED")
	listCmd.Flags().StringVar(&ownerID, "owner", "", "Owner actor ID")
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")

	var decision string
	resolveCmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Approve or reject a pending entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entry dto.EntryResponse
			path := "/api/v1/entries/" + url.PathEscape(args[0]) + "/resolve"
			if err := a.call(cmd.Context(), http.MethodPost, path, nil, dto.ResolveRequest{Decision: decision}, &entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", entry.ID, entry.Status)
			return nil
		},
	}
	resolveCmd.Flags().StringVar(&decision, "decision", "", "approve or reject")
	_ = resolveCmd.MarkFlagRequired("decision")

	cmd.AddCommand(listCmd, resolveCmd)
	return cmd
}

func printEntries(w io.Writer, entries []dto.EntryResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tOWNER\tSTATUS\tDEPOSIT\tWITHDRAWAL\tNET\tCOMMISSION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(e.ID, 12),
			e.CreatedAt.Format("2006-01-02"),
			truncate(e.Owner.Name, 20),
			e.Status,
			e.Totals.TotalDeposit.StringFixed(2),
			e.Totals.TotalWithdrawal.StringFixed(2),
			e.Totals.NetBalance.StringFixed(2),
			e.Totals.Commission.StringFixed(2),
		)
	}
	return tw.Flush()
}

func notificationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Notification operations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			var list dto.NotificationListResponse
			if err := a.call(cmd.Context(), http.MethodGet, "/api/v1/notifications", nil, nil, &list); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d unread\n", list.UnreadCount)
			for _, n := range list.Notifications {
				marker := " "
				if !n.Read {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s %s %s\n", marker, n.ID, n.CreatedAt.Format("2006-01-02 15:04"), n.Message)
			}
			return nil
		},
	}

	var all bool
	readCmd := &cobra.Command{
		Use:   "read [ids...]",
		Short: "Mark notifications as read",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("pass notification ids or --all")
			}

			var resp dto.MarkReadResponse
			req := dto.MarkReadRequest{NotificationIDs: args, MarkAll: all}
			if err := a.call(cmd.Context(), http.MethodPut, "/api/v1/notifications", nil, req, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marked %d as read\n", resp.Updated)
			return nil
		},
	}
	readCmd.Flags().BoolVar(&all, "all", false, "Mark every notification as read")

	cmd.AddCommand(listCmd, readCmd)
	return cmd
}
