package livelox

// classInfoRequest is the body of POST /Data/ClassInfo. The relay lists
// encode as [] and courseIds as null.
type classInfoRequest struct {
	ClassIDs         []string `json:"classIds"`
	CourseIDs        []int    `json:"courseIds"`
	RelayLegs        []int    `json:"relayLegs"`
	RelayLegGroupIDs []int    `json:"relayLegGroupIds"`
	IncludeMap       bool     `json:"includeMap"`
	IncludeCourses   bool     `json:"includeCourses"`
	SkipStoreInCache bool     `json:"skipStoreInCache"`
}

type classInfoResponse struct {
	General *classInfoGeneral `json:"general" validate:"required"`
}

type classInfoGeneral struct {
	ClassBlobURL string     `json:"classBlobUrl" validate:"required,url"`
	Event        *eventInfo `json:"event"`
}

type eventInfo struct {
	Name string `json:"name"`
}

type classBlob struct {
	Map     *blobMap     `json:"map" validate:"required"`
	Courses []blobCourse `json:"courses" validate:"dive"`
}

type blobMap struct {
	URL                   string         `json:"url" validate:"required,url"`
	Name                  string         `json:"name"`
	ImageFormat           string         `json:"imageFormat"`
	Resolution            *float64       `json:"resolution" validate:"required,gt=0"`
	BoundingQuadrilateral *quadrilateral `json:"boundingQuadrilateral" validate:"required"`
}

// quadrilateral lists the map corners as BL, BR, TR, TL. The arity is
// checked when it is turned into a geo.Quad.
type quadrilateral struct {
	Vertices []wirePoint `json:"vertices" validate:"dive"`
}

type wirePoint struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type blobCourse struct {
	Name     string        `json:"name"`
	Controls []blobControl `json:"controls" validate:"dive"`
}

type blobControl struct {
	Control *controlInfo `json:"control" validate:"required"`
}

type controlInfo struct {
	Position *wirePoint `json:"position" validate:"required"`
}
