package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/triad-agents/triad/internal/license"
)

var (
	licenseEmail string
	licenseTier  string
)

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Manage the license for this machine",
	Long: `Manage the Triad license.

Without a license Triad runs at the community tier, which includes team
spawning. The pro and enterprise tiers add the dual-layer shadow
observer. Licenses are bound to the machine they are activated on.`,
	RunE: runLicenseShow,
}

var licenseActivateCmd = &cobra.Command{
	Use:   "activate <key>",
	Short: "Activate a license key",
	Args:  cobra.ExactArgs(1),
	RunE:  runLicenseActivate,
}

var licenseShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current license",
	RunE:  runLicenseShow,
}

var licenseDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Remove the license from this machine",
	RunE:  runLicenseDeactivate,
}

func init() {
	licenseActivateCmd.Flags().StringVar(&licenseEmail, "email", "", "Email the license was issued to")
	licenseActivateCmd.Flags().StringVar(&licenseTier, "tier", string(license.TierPro), "License tier: community, pro or enterprise")

	licenseCmd.AddCommand(licenseActivateCmd)
	licenseCmd.AddCommand(licenseShowCmd)
	licenseCmd.AddCommand(licenseDeactivateCmd)
}

func runLicenseActivate(cmd *cobra.Command, args []string) error {
	mgr, err := license.NewManager()
	if err != nil {
		return err
	}

	lic, err := mgr.Activate(args[0], licenseEmail, license.Tier(licenseTier))
	if err != nil {
		return err
	}

	printStatus("✓", fmt.Sprintf("Activated %s license", lic.Tier), color.FgGreen)
	if lic.Email != "" {
		fmt.Printf("  Issued to: %s\n", lic.Email)
	}
	return nil
}

func runLicenseShow(cmd *cobra.Command, args []string) error {
	mgr, err := license.NewManager()
	if err != nil {
		return err
	}

	lic := mgr.Current()
	fmt.Printf("Tier: %s\n", lic.Tier)
	if lic.Email != "" {
		fmt.Printf("Email: %s\n", lic.Email)
	}
	if !lic.ActivatedAt.IsZero() {
		fmt.Printf("Activated: %s\n", lic.ActivatedAt.Format(time.DateOnly))
	}

	fmt.Println("\nCapabilities:")
	for _, name := range []string{license.CapTeamSpawning, license.CapDualLayer} {
		if mgr.HasCapability(name) {
			printStatus("✓", name, color.FgGreen)
		} else {
			printStatus("✗", name, color.FgRed)
		}
	}
	return nil
}

func runLicenseDeactivate(cmd *cobra.Command, args []string) error {
	mgr, err := license.NewManager()
	if err != nil {
		return err
	}
	if err := mgr.Deactivate(); err != nil {
		return err
	}
	printStatus("✓", "License removed, running at community tier", color.FgGreen)
	return nil
}
