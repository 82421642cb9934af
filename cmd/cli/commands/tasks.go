package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlerhq/dler/internal/api/v1/handlers"
)

// Task flag names
const (
	flagTaskID    = "id"
	flagTaskURL   = "url"
	flagAudioOnly = "audio-only"
	flagFormat    = "format"
)

func init() {
	tasksCmd.AddCommand(submitTaskCmd)
	tasksCmd.AddCommand(getTaskCmd)
	tasksCmd.AddCommand(historyCmd)
	tasksCmd.AddCommand(deleteTaskCmd)
	tasksCmd.AddCommand(redownloadTaskCmd)

	// Add flags for submit
	submitTaskCmd.Flags().StringP(flagTaskURL, "u", "", "Media page URL to download")
	submitTaskCmd.Flags().Bool(flagAudioOnly, false, "Extract audio only")
	submitTaskCmd.Flags().StringP(flagFormat, "f", "", "Explicit download format selector")
	_ = submitTaskCmd.MarkFlagRequired(flagTaskURL)

	// Add flags for get
	getTaskCmd.Flags().StringP(flagTaskID, "i", "", "Task ID")
	_ = getTaskCmd.MarkFlagRequired(flagTaskID)

	// Add flags for delete
	deleteTaskCmd.Flags().StringP(flagTaskID, "i", "", "Task ID")
	_ = deleteTaskCmd.MarkFlagRequired(flagTaskID)

	// Add flags for redownload
	redownloadTaskCmd.Flags().StringP(flagTaskID, "i", "", "Task ID")
	_ = redownloadTaskCmd.MarkFlagRequired(flagTaskID)
}

// GetTasksCmd returns the tasks command group
func GetTasksCmd() *cobra.Command {
	return tasksCmd
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage download tasks",
}

var submitTaskCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a URL for download",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rawURL, err := cmd.Flags().GetString(flagTaskURL)
		if err != nil {
			return fmt.Errorf("error getting url flag: %w", err)
		}
		audioOnly, err := cmd.Flags().GetBool(flagAudioOnly)
		if err != nil {
			return fmt.Errorf("error getting audio-only flag: %w", err)
		}
		format, err := cmd.Flags().GetString(flagFormat)
		if err != nil {
			return fmt.Errorf("error getting format flag: %w", err)
		}

		req := handlers.TaskRequest{URL: rawURL}
		if audioOnly || format != "" {
			req.Options = &handlers.TaskOptions{AudioOnly: audioOnly, Format: format}
		}

		resp, err := apiClient.CreateTask(context.Background(), req)
		if err != nil {
			return fmt.Errorf("error submitting task: %w", err)
		}
		return printJSON(resp)
	},
}

var getTaskCmd = &cobra.Command{
	Use:   "get",
	Short: "Get a task's status by its ID",
	RunE: func(cmd *cobra.Command, _ []string) error {
		taskID, err := requireTaskID(cmd)
		if err != nil {
			return err
		}

		info, err := apiClient.GetTask(context.Background(), taskID)
		if err != nil {
			return fmt.Errorf("error getting task: %w", err)
		}
		return printJSON(info)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent submissions, most recent first",
	RunE: func(_ *cobra.Command, _ []string) error {
		infos, err := apiClient.GetHistory(context.Background())
		if err != nil {
			return fmt.Errorf("error getting history: %w", err)
		}
		return printJSON(infos)
	},
}

var deleteTaskCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a task and its downloaded file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		taskID, err := requireTaskID(cmd)
		if err != nil {
			return err
		}

		resp, err := apiClient.DeleteTask(context.Background(), taskID)
		if err != nil {
			return fmt.Errorf("error deleting task: %w", err)
		}
		return printJSON(resp)
	},
}

var redownloadTaskCmd = &cobra.Command{
	Use:   "redownload",
	Short: "Re-submit a task's URL, bypassing the result cache",
	RunE: func(cmd *cobra.Command, _ []string) error {
		taskID, err := requireTaskID(cmd)
		if err != nil {
			return err
		}

		resp, err := apiClient.RedownloadTask(context.Background(), taskID)
		if err != nil {
			return fmt.Errorf("error requesting redownload: %w", err)
		}
		return printJSON(resp)
	},
}

// requireTaskID reads the task ID flag and rejects empty values
func requireTaskID(cmd *cobra.Command) (string, error) {
	taskID, err := cmd.Flags().GetString(flagTaskID)
	if err != nil {
		return "", fmt.Errorf("error getting task ID flag: %w", err)
	}
	if taskID == "" {
		return "", fmt.Errorf("task ID cannot be empty")
	}
	return taskID, nil
}

// printJSON pretty-prints a response to stdout
func printJSON(v interface{}) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	fmt.Println(string(prettyJSON))
	return nil
}
