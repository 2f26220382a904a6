package ads

import (
	"context"
	"errors"
	"fmt"

	infralogger "github.com/jonesrussell/sitelink-report/infrastructure/logger"
	"github.com/jonesrussell/sitelink-report/internal/domain"
)

// ErrNoManagerAccount is returned when account enumeration has no login customer.
var ErrNoManagerAccount = errors.New("login customer id is required to list accounts")

// accountsQuery selects the client accounts reporting can run against.
const accountsQuery = `
SELECT
  customer_client.id,
  customer_client.descriptive_name,
  customer_client.manager,
  customer_client.status
FROM customer_client
WHERE customer_client.manager = FALSE
  AND customer_client.status = 'ENABLED'
ORDER BY customer_client.id`

// ListAccounts enumerates the enabled, non-manager accounts below the login
// (manager) customer, in id order.
func (c *Client) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	if c.loginCustomerID == "" {
		return nil, ErrNoManagerAccount
	}

	rows, err := c.Search(ctx, c.loginCustomerID, accountsQuery)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		row := rows.Row()
		accounts = append(accounts, domain.Account{
			ID:   row.String("customer_client.id"),
			Name: row.String("customer_client.descriptive_name"),
		})
	}
	if iterErr := rows.Err(); iterErr != nil {
		return nil, fmt.Errorf("iterate accounts: %w", iterErr)
	}

	c.logger.Debug("Listed accounts", infralogger.Int("count", len(accounts)))
	return accounts, nil
}
