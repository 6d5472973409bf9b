package core

// VehicleType identifies one of the drivable vehicle classes.
type VehicleType string

const (
	VehicleBoda        VehicleType = "boda"
	VehicleTuktuk      VehicleType = "tuktuk"
	VehiclePersonalCar VehicleType = "personal-car"
	Vehicle14Seater    VehicleType = "14-seater"
	Vehicle32Seater    VehicleType = "32-seater"
	Vehicle52Seater    VehicleType = "52-seater"
)

// StarterVehicle is always unlocked and costs nothing.
const StarterVehicle = VehicleBoda

// AllVehicles lists every vehicle type in unlock order.
var AllVehicles = []VehicleType{
	VehicleBoda,
	VehicleTuktuk,
	VehiclePersonalCar,
	Vehicle14Seater,
	Vehicle32Seater,
	Vehicle52Seater,
}

// Valid reports whether v is a known vehicle type.
func (v VehicleType) Valid() bool {
	for _, known := range AllVehicles {
		if v == known {
			return true
		}
	}
	return false
}

// VehicleSpec holds the immutable tuning of a vehicle type.
type VehicleSpec struct {
	Type           VehicleType `json:"type"`
	DisplayName    string      `json:"displayName"`
	TopSpeed       float64     `json:"topSpeed"`       // km/h
	Acceleration   float64     `json:"acceleration"`   // km/h per second
	BrakeRate      float64     `json:"brakeRate"`      // km/h per second
	TimeMultiplier float64     `json:"timeMultiplier"` // scales the route time budget
	UnlockPrice    float64     `json:"unlockPrice"`
	FuelEfficiency float64     `json:"fuelEfficiency"` // km per liter
	TankCapacity   float64     `json:"tankCapacity"`   // liters
	LegalCapacity  int         `json:"legalCapacity"`
	MaxCapacity    int         `json:"maxCapacity"`
	Personal       bool        `json:"personal"` // private vehicle, smaller routine bribes
}
