package models

// All returns every persistence model in migration order. Parents come
// before the tables that reference them.
func All() []interface{} {
	return []interface{}{
		&InstanceModel{},
		&WebhookModel{},
		&QueueModel{},
		&QueueLineModel{},
		&OperationLogModel{},
		&OperationLogLineModel{},
		&CustomerModel{},
		&AddressModel{},
		&GatewayModel{},
		&WorkflowPolicyModel{},
		&FinancialStatusModel{},
		&CarrierModel{},
		&SalesOrderModel{},
		&OrderLineModel{},
		&ListingModel{},
		&ListingItemModel{},
		&CategoryModel{},
		&TagModel{},
		&TaxModel{},
		&ShippingMethodModel{},
		&ImageModel{},
	}
}
