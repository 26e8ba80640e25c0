package scenario

// Well known camera descriptors shared by the built-in catalogue.
const (
	NeuschwansteinCamera = "lat=47.557714,lng=10.749557,alt=988.6,hdg=0,tilt=55,range=723"
	BarberCamera         = "lat=33.5325,lng=-86.6189,alt=500,hdg=0,tilt=45,range=1500"
)

// BuiltIn returns the predefined scenarios in presentation order.
func BuiltIn() []Definition {
	return []Definition{
		{
			Name:         "camera",
			Title:        "Camera Attributes",
			Kind:         KindCameraSweep,
			InitialState: "mode=satellite;camera=" + NeuschwansteinCamera,
		},
		{
			Name:         "race_strategy",
			Title:        "Race Strategy",
			InitialState: "mode=satellite;camera=lat=33.5325,lng=-86.6189,alt=1000,hdg=0,tilt=45,range=2000",
			Animation:    "waitUntilTheMapIsSteady;delay=dur=1000",
			Markers:      "id=barber,lat=33.5325,lng=-86.6189,label=Barber Motorsports Park,z=3",
		},
		{
			Name:         "neuschwanstein",
			Title:        "Neuschwanstein Castle",
			InitialState: "mode=satellite",
			Animation: "waitUntilTheMapIsSteady=timeout=10000;delay=dur=1000;" +
				"flyTo=lat=47.557714,lng=10.749557,alt=988.6,hdg=163,tilt=65,range=500,dur=4000;" +
				"waitUntilTheMapIsSteady=timeout=5000;" +
				"flyAround=lat=47.557714,lng=10.749557,alt=988.6,hdg=163,tilt=65,range=500,dur=12000,count=1",
			Markers: "id=castle,lat=47.557714,lng=10.749557,alt=60,label=Schloss Neuschwanstein,altMode=relative_to_ground,z=2",
		},
		{
			Name:         "barber_orbit",
			Title:        "Barber Motorsports Park",
			InitialState: "mode=hybrid",
			Animation:    "flyTo=" + BarberCamera + ",dur=5000;waitUntilTheMapIsSteady=timeout=3000;flyAround=" + BarberCamera + ",dur=60000,count=1",
			Markers: "id=pit,lat=33.5318,lng=-86.6196,label=Pit Lane,collision=required;" +
				"id=t1,lat=33.5341,lng=-86.6172,label=Turn 1,collision=optional_and_hides_lower",
		},
		{
			Name:         "sierra_route",
			Title:        "Sierra Route",
			InitialState: "mode=satellite;camera=lat=40.5,lng=-122.5,alt=0,tilt=30,range=2500000",
			Animation:    "waitUntilTheMapIsSteady=timeout=8000;flyTo=lat=40.7,lng=-123.4,tilt=60,hdg=-30,range=900000,dur=6000",
			Polylines:    "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
		},
		{
			Name:         "stadium_models",
			Title:        "Stadium Models",
			InitialState: "mode=satellite;camera=lat=40.8296,lng=-73.9262,alt=30,hdg=45,tilt=60,range=600",
			Animation:    "waitUntilTheMapIsSteady=timeout=5000;flyAround=lat=40.8296,lng=-73.9262,alt=30,tilt=60,range=600,dur=15000,count=-1",
			Models: "id=balloon,url=https://maps.example.com/models/balloon.glb,lat=40.8296,lng=-73.9262,alt=120,scale=20,altMode=relative_to_ground;" +
				"id=plane,url=https://maps.example.com/models/plane.glb,lat=40.8305,lng=-73.9250,alt=250,scaleX=5,scaleY=5,scaleZ=5,hdg=90,altMode=absolute",
		},
		{
			Name:         "park_polygon",
			Title:        "Central Park",
			InitialState: "mode=hybrid;camera=lat=40.7812,lng=-73.9665,alt=0,hdg=29,tilt=50,range=5000",
			Animation:    "waitUntilTheMapIsSteady=timeout=5000;delay=dur=1500;flyTo=lat=40.7812,lng=-73.9665,hdg=-61,tilt=70,range=3500,dur=4000",
			Polygons: "outer=40.7681:-73.9819|40.8003:-73.9582|40.7968:-73.9492|40.7648:-73.9727," +
				"inner=40.7794:-73.9693|40.7862:-73.9630|40.7838:-73.9575|40.7770:-73.9639," +
				"fill=#4600FF00,stroke=green,width=4",
		},
	}
}

// DefaultRegistry returns a registry of the built-in scenarios.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, d := range BuiltIn() {
		r.Put(New(d))
	}
	return r
}
