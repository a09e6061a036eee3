package commands

import (
	"fmt"

	"stockapi/internal/auth"
	"stockapi/internal/model"
	"stockapi/internal/repository"
	"stockapi/internal/service"
	"stockapi/internal/validation"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	userName     string
	userEmail    string
	userPassword string
	userCost     int
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user that can log in to the API",
	Long: `Create a user with the same validation rules as POST /v1/users.

Examples:
  stockctl user create --name Admin --email admin@example.com --password 'change-me-now'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, logger, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		hasher, err := auth.NewBcryptHasher(userCost)
		if err != nil {
			return err
		}

		users := repository.NewUserRepository(pool, logger)
		svc := service.NewUserService(users, validation.New(), hasher, logger)

		user, err := svc.Create(ctx, &model.CreateUserRequest{
			Name:     userName,
			Email:    userEmail,
			Password: userPassword,
		})
		if err != nil {
			if de, ok := model.AsError(err); ok && len(de.Fields) > 0 {
				for _, field := range de.FieldNames() {
					for _, msg := range de.Fields[field] {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
					}
				}
			}
			return err
		}

		total, err := users.Count(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created user %d <%s> (%d users total)\n", user.ID, user.Email, total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name (required)")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Login email (required)")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Password, at least 8 characters (required)")
	userCreateCmd.Flags().IntVar(&userCost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")
}
