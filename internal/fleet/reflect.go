package fleet

// DeliveryInProgress is the one delivery lifecycle status that keeps a
// vehicle on the road.
const DeliveryInProgress = "IN_PROGRESS"

// ReflectDeliveryStatus maps a delivery lifecycle status to the vehicle
// status it implies. An in-progress delivery puts the vehicle in transit;
// every other delivery status releases it.
//
// The mapping is unconditional on purpose: a vehicle parked in MAINTENANCE
// that gets dispatched anyway is overwritten too, so the reflected status
// always tells the truth about the last delivery movement.
func ReflectDeliveryStatus(deliveryStatus string) Status {
	if deliveryStatus == DeliveryInProgress {
		return StatusInTransit
	}
	return StatusAvailable
}
