package services

import "github.com/adegaexpress/adega/app/models"

// transitionTable maps order type -> current status -> statuses reachable
// from it. Terminal statuses have no entry. Never mutated after init;
// readers get copies through AllowedTransitions.
var transitionTable = map[models.OrderType]map[models.OrderStatus][]models.OrderStatus{
	models.OrderTypeDelivery: {
		models.StatusPending:    {models.StatusAccepted, models.StatusCancelled},
		models.StatusAccepted:   {models.StatusPreparing, models.StatusCancelled},
		models.StatusPreparing:  {models.StatusReady, models.StatusCancelled},
		models.StatusReady:      {models.StatusDispatched, models.StatusCancelled},
		models.StatusDispatched: {models.StatusArrived, models.StatusDelivered, models.StatusCancelled},
		models.StatusArrived:    {models.StatusDelivered, models.StatusCancelled},
	},
	models.OrderTypeCounter: {
		models.StatusPending:   {models.StatusAccepted, models.StatusCancelled},
		models.StatusAccepted:  {models.StatusPreparing, models.StatusCancelled},
		models.StatusPreparing: {models.StatusReady, models.StatusCancelled},
		models.StatusReady:     {models.StatusDelivered, models.StatusCancelled},
	},
}

// AllowedTransitions returns the statuses an order of orderType may move to
// from current. The result is empty for terminal or unknown states.
func AllowedTransitions(orderType models.OrderType, current models.OrderStatus) []models.OrderStatus {
	next := transitionTable[orderType][current]
	out := make([]models.OrderStatus, len(next))
	copy(out, next)
	return out
}

func CanTransition(orderType models.OrderType, from, to models.OrderStatus) bool {
	for _, s := range transitionTable[orderType][from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves status for orderType.
func IsTerminal(orderType models.OrderType, status models.OrderStatus) bool {
	return len(transitionTable[orderType][status]) == 0
}

func validOrderType(t models.OrderType) bool {
	_, ok := transitionTable[t]
	return ok
}

func validStatus(s models.OrderStatus) bool {
	for _, known := range models.Statuses {
		if s == known {
			return true
		}
	}
	return false
}
