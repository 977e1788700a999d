package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"barrier-access-control/internal/token"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage device credentials",
}

var deviceTokenCmd = &cobra.Command{
	Use:   "token [device_id]",
	Short: "Mint a device credential for the websocket channel",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		deviceID := uuid.NewString()
		if len(args) > 0 {
			deviceID = args[0]
		}

		tokens := token.NewManager(cfg.Secret,
			time.Duration(cfg.OperatorTokenTTL)*time.Minute,
			time.Duration(cfg.DeviceTokenTTL)*24*time.Hour)
		defer tokens.Close()

		credential, err := tokens.NewDeviceToken(deviceID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate device token: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("device_id: %s\n", deviceID)
		fmt.Printf("token:     %s\n", credential)
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.AddCommand(deviceTokenCmd)
}
