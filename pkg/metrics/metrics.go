package metrics

const namespace = "agromarket"
