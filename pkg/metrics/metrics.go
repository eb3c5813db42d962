package metrics

const namespace = "servicehub"
