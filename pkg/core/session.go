package core

// GameStatus is the session lifecycle state.
type GameStatus string

const (
	StatusIdle     GameStatus = "IDLE"
	StatusPlaying  GameStatus = "PLAYING"
	StatusPaused   GameStatus = "PAUSED"
	StatusCrashing GameStatus = "CRASHING"
	StatusGameOver GameStatus = "GAME_OVER"
)

// EndReason explains why a session reached GAME_OVER.
type EndReason string

const (
	ReasonNone      EndReason = ""
	ReasonCompleted EndReason = "COMPLETED"
	ReasonTimeUp    EndReason = "TIME_UP"
	ReasonCrash     EndReason = "CRASH"
	ReasonArrested  EndReason = "ARRESTED"
)

// ModalType is the encounter currently suspending motion.
type ModalType string

const (
	ModalNone   ModalType = "NONE"
	ModalStage  ModalType = "STAGE"
	ModalPolice ModalType = "POLICE"
)

// Control is a driver input.
type Control string

const (
	ControlGas   Control = "GAS"
	ControlBrake Control = "BRAKE"
)

// StageChoice is the player's decision at a stage.
type StageChoice string

const (
	StagePickupLegal    StageChoice = "PICKUP_LEGAL"
	StagePickupOverload StageChoice = "PICKUP_OVERLOAD"
	StageDepart         StageChoice = "DEPART"
)

// PoliceChoice is the player's decision at a police check.
type PoliceChoice string

const (
	PolicePay    PoliceChoice = "PAY"
	PoliceRefuse PoliceChoice = "REFUSE"
)

// StageEncounter is the payload of an open stage modal.
type StageEncounter struct {
	Waiting          int     `json:"waiting"`
	Alighting        int     `json:"alighting"`
	FarePerPassenger float64 `json:"farePerPassenger"`
}

// PoliceEncounter is the payload of an open police modal.
type PoliceEncounter struct {
	Bribe      float64 `json:"bribe"`
	Overloaded bool    `json:"overloaded"`
	Message    string  `json:"message"`
}

// Cue is a one-shot signal for the external audio/visual layer.
type Cue string

const (
	CueStageArrival   Cue = "stage_arrival"
	CuePoliceSiren    Cue = "police_siren"
	CuePoliceWaved    Cue = "police_waved"
	CueOverlapWarning Cue = "overlap_warning"
	CueBrakeFade      Cue = "brake_fade"
	CueCrash          Cue = "crash"
	CueArrested       Cue = "arrested"
	CueCompleted      Cue = "completed"
	CueTimeUp         Cue = "time_up"
)

// HUD is the read model consumed by the rendering/UI layer.
type HUD struct {
	Status           GameStatus       `json:"status"`
	Reason           EndReason        `json:"reason,omitempty"`
	RouteID          string           `json:"routeId,omitempty"`
	Vehicle          VehicleType      `json:"vehicle,omitempty"`
	Speed            float64          `json:"speed"`
	Distance         float64          `json:"distance"`
	TotalDistance    float64          `json:"totalDistance"`
	Progress         float64          `json:"progress"`
	Position         Waypoint         `json:"position"`
	Fuel             float64          `json:"fuel"`
	FuelUsedLiters   float64          `json:"fuelUsedLiters"`
	BrakeTemp        float64          `json:"brakeTemp"`
	Passengers       int              `json:"passengers"`
	LegalCapacity    int              `json:"legalCapacity"`
	MaxCapacity      int              `json:"maxCapacity"`
	Happiness        float64          `json:"happiness"`
	OverlapTimer     float64          `json:"overlapTimer"`
	TimeRemaining    int              `json:"timeRemaining"`
	Cash             float64          `json:"cash"`
	BankBalance      float64          `json:"bankBalance"`
	Night            bool             `json:"night"`
	Lane             Lane             `json:"lane"`
	Modal            ModalType        `json:"modal"`
	Stage            *StageEncounter  `json:"stage,omitempty"`
	Police           *PoliceEncounter `json:"police,omitempty"`
	NextStageWaiting int              `json:"nextStageWaiting"`
}
