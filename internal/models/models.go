package models

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Company{},
		&Membership{},
		&Category{},
		&Income{},
		&Expense{},
		&RecurringExpense{},
		&ImportBatch{},
		&ImportProfile{},
		&BankTransaction{},
		&ReconciliationAudit{},
		&Budget{},
	}
}
