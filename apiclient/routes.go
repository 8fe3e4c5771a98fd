package apiclient

// Backend route constants, relative to the base URL.
const (
	// Auth
	RouteLogin   = "/Autenticacion/Autenticar"
	RouteRefresh = "/Autenticacion/ObternerRefreshToken"

	// Users
	RouteUsers           = "/Usuario/Lista"
	RouteUserByEmail     = "/Usuario/ObtenerPorEmail/"
	RouteUserByID        = "/Usuario/Obtener/"
	RouteCreateUser      = "/Usuario/CrearCliente"
	RouteUpdateUser      = "/Usuario/ActualizarCliente/"
	RouteDeleteUser      = "/Usuario/Eliminar/"
	RouteRecoverPassword = "/Usuario/RecuperarPassword"
	RouteChangePassword  = "/Usuario/CambiarPassword"
	RouteWalletBalance   = "/Usuario/Saldo/"

	// Transactions
	RouteCreateTransaction  = "/Transacciones/Crear"
	RouteTransactionsByUser = "/Transacciones/ObtenerPorUsuarioId/"
	RouteTransaction        = "/Transacciones/"

	// Rates
	RouteExchangeRate = "/Exchange/Rate"
)
