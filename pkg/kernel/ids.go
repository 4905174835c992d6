package kernel

// ============================================================================
// Typed Identifiers
// ============================================================================

// UserID identifica a un usuario del sistema
type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (id UserID) String() string { return string(id) }
func (id UserID) IsEmpty() bool  { return id == "" }

// JobID identifica una vacante
type JobID string

func NewJobID(id string) JobID  { return JobID(id) }
func (id JobID) String() string { return string(id) }
func (id JobID) IsEmpty() bool  { return id == "" }

// CandidateID identifica a un candidato
type CandidateID string

func NewCandidateID(id string) CandidateID { return CandidateID(id) }
func (id CandidateID) String() string      { return string(id) }
func (id CandidateID) IsEmpty() bool       { return id == "" }
