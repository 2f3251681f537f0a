package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var wipeYes bool

// driveCmd groups the remote store commands
var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Inspect or wipe the remote annotation store",
}

// driveLsCmd lists the annotator folders under the root folder
var driveLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List annotator folders in the remote store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := zap.NewNop()
		store, err := remoteStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}

		entries, err := store.ListRoot(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Printf("remote store %q is empty or absent\n", cfg.Drive.RootFolder)
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s\t%s\n", e.ID, e.Name)
		}
		return nil
	},
}

// driveWipeCmd deletes the root folder and every annotation in it
var driveWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete the remote root folder and ALL annotation records",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if !wipeYes {
			fmt.Printf("This deletes %q and every annotation in it. Type the folder name to confirm: ", cfg.Drive.RootFolder)
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return err
			}
			if strings.TrimSpace(line) != cfg.Drive.RootFolder {
				return fmt.Errorf("confirmation did not match, aborting")
			}
		}

		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()

		store, err := remoteStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}

		wiped, err := store.WipeRoot(cmd.Context())
		if err != nil {
			return err
		}
		if !wiped {
			fmt.Println("nothing to wipe")
			return nil
		}
		fmt.Printf("wiped %q\n", cfg.Drive.RootFolder)
		return nil
	},
}

func init() {
	driveWipeCmd.Flags().BoolVar(&wipeYes, "yes", false, "skip the interactive confirmation")

	driveCmd.AddCommand(driveLsCmd)
	driveCmd.AddCommand(driveWipeCmd)
	rootCmd.AddCommand(driveCmd)
}
